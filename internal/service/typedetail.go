package service

import "reflect"

// TypeVariant distinguishes payloads with a fixed memory footprint from
// slice-shaped payloads whose length is chosen per sample.
type TypeVariant string

const (
	TypeVariantFixedSize TypeVariant = "fixed-size"
	TypeVariantDynamic   TypeVariant = "dynamic"
)

// TypeDetail describes a payload or user-header type well enough for two
// processes to agree they mean the same memory layout. Both sides of a
// publish-subscribe service must present identical details.
type TypeDetail struct {
	Variant   TypeVariant `yaml:"variant"`
	TypeName  string      `yaml:"type_name"`
	Size      int         `yaml:"size"`
	Alignment int         `yaml:"alignment"`
}

// DetailOf derives the TypeDetail for T.
func DetailOf[T any](variant TypeVariant) TypeDetail {
	t := reflect.TypeFor[T]()
	return TypeDetail{
		Variant:   variant,
		TypeName:  t.String(),
		Size:      int(t.Size()),
		Alignment: t.Align(),
	}
}

// Equal reports whether both details describe the same layout.
func (d TypeDetail) Equal(o TypeDetail) bool { return d == o }

// IsZero reports whether the detail is unset (no user header configured).
func (d TypeDetail) IsZero() bool { return d == TypeDetail{} }
