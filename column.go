package df

import "fmt"

// Col is a named Vector.
type Col struct {
	name string

	*Vector
}

// NewCol creates a column from data, which may be a *Vector, a slice or a single value.
func NewCol(data any, dt DataTypes, opts ...ColOpt) (*Col, error) {
	var (
		v *Vector
		e error
	)

	if v, e = NewVector(data, dt); e != nil {
		return nil, e
	}

	c := &Col{Vector: v}
	for _, opt := range opts {
		if e := opt(c); e != nil {
			return nil, e
		}
	}

	return c, nil
}

// *********** Setters ***********

type ColOpt func(c *Col) error

func ColName(name string) ColOpt {
	return func(c *Col) error {
		if c == nil {
			return fmt.Errorf("nil column to ColName")
		}

		if c.Name() != "" {
			return fmt.Errorf("column already named -- use Rename method")
		}

		if e := validName(name); e != nil {
			return e
		}

		c.name = name

		return nil
	}
}

// ColNulls marks the listed rows as null.
func ColNulls(rows ...int) ColOpt {
	return func(c *Col) error {
		for _, row := range rows {
			if row < 0 || row >= c.Len() {
				return fmt.Errorf("null row %d out of range for column %s", row, c.Name())
			}

			c.SetNull(row)
		}

		return nil
	}
}

// *********** Methods ***********

func (c *Col) Name() string {
	return c.name
}

func (c *Col) DataType() DataTypes {
	return c.VectorType()
}

func (c *Col) Rename(newName string) error {
	if e := validName(newName); e != nil {
		return e
	}

	c.name = newName

	return nil
}

func (c *Col) Copy() *Col {
	return &Col{name: c.name, Vector: c.Vector.Copy()}
}

// Cast returns a copy of the column converted to dt. It fails if any non-null element can't be converted.
func (c *Col) Cast(dt DataTypes) (*Col, error) {
	v, e := c.Coerce(dt)
	if e != nil {
		return nil, fmt.Errorf("column %s: %w", c.Name(), e)
	}

	return &Col{name: c.name, Vector: v}, nil
}

func (c *Col) String() string {
	t := fmt.Sprintf("column: %s\ntype: %s\nnulls: %d\n", c.Name(), c.DataType(), c.NullCount())

	return t + prettyPrint([]string{c.Name()}, c.Vector)
}
