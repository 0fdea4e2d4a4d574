package normalize

import "strings"

// facultyCities are university cities that appear as a suffix of
// free-text faculty names ("FESB Split", "Pravni fakultet Zagreb").
var facultyCities = []string{
	"zagreb",
	"split",
	"rijeka",
	"osijek",
	"zadar",
	"pula",
	"dubrovnik",
	"varazdin",
	"varaždin",
	"slavonski brod",
}

// CleanFaculty canonicalizes a free-text faculty name and extracts the
// university city when the name ends with one. Unknown or empty input
// yields empty strings; it is never an error.
func CleanFaculty(raw string) (faculty, city string) {
	faculty = strings.Trim(strings.TrimSpace(raw), `"'`)
	faculty = strings.Join(strings.Fields(faculty), " ")
	if faculty == "" {
		return "", ""
	}

	lower := strings.ToLower(faculty)
	for _, c := range facultyCities {
		if lower == c {
			// A bare city name is not a faculty.
			return "", canonicalCity(c)
		}
		if strings.HasSuffix(lower, " "+c) {
			faculty = strings.TrimSpace(faculty[:len(faculty)-len(c)-1])
			faculty = strings.TrimSuffix(faculty, ",")
			return faculty, canonicalCity(c)
		}
	}
	return faculty, ""
}

func canonicalCity(c string) string {
	if c == "varazdin" {
		c = "varaždin"
	}
	words := strings.Fields(c)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
