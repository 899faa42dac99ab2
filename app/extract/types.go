package extract

// Fields holds the structured values recovered from one post's text. A nil
// slot means the field was absent, which is distinct from an empty capture.
type Fields struct {
	DateTime  *string
	Magnitude *string
	Depth     *string
	Location  *string
	Intensity *string
}

// CoreEmpty reports whether all of date/time, magnitude, depth and location
// are absent. Records in that state carry no usable seismic data and are
// discarded by callers; intensity alone does not save a record.
func (f Fields) CoreEmpty() bool {
	return f.DateTime == nil && f.Magnitude == nil && f.Depth == nil && f.Location == nil
}

func (f Fields) get(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

// Value returns the field content or "" when absent; use the pointer slots
// directly when the absent/empty distinction matters.
func (f Fields) Value(name string) string {
	switch name {
	case "date_time":
		return f.get(f.DateTime)
	case "magnitude":
		return f.get(f.Magnitude)
	case "depth":
		return f.get(f.Depth)
	case "location":
		return f.get(f.Location)
	case "intensity":
		return f.get(f.Intensity)
	default:
		return ""
	}
}
