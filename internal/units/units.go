// Package units holds the square-metre / square-foot conversions used
// across the matching and feasibility engines. All registry data is
// metric; market rates (PSF) are imperial.
package units

const SqftPerSqm = 10.7639

func SqmToSqft(sqm float64) float64 { return sqm * SqftPerSqm }

func SqftToSqm(sqft float64) float64 { return sqft / SqftPerSqm }
