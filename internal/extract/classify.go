package extract

import "strings"

// Category is the logical content type of a file, decided by its name.
type Category string

// Categories.
const (
	CategoryText   Category = "text"
	CategoryPDF    Category = "pdf"
	CategoryExcel  Category = "excel"
	CategoryWord   Category = "word"
	CategoryBinary Category = "binary"
)

// suffixes is checked in order; the first matching category wins.
var suffixes = []struct {
	cat  Category
	exts []string
}{
	{CategoryText, []string{".txt", ".csv", ".json", ".xml", ".html", ".htm", ".md", ".js", ".ts", ".css", ".py", ".yaml", ".yml"}},
	{CategoryPDF, []string{".pdf"}},
	{CategoryExcel, []string{".xlsx", ".xls"}},
	{CategoryWord, []string{".docx", ".doc"}},
}

// Classify maps a file name to its Category by case-insensitive suffix.
// Anything unrecognized is CategoryBinary.
func Classify(name string) Category {
	lower := strings.ToLower(name)

	for _, s := range suffixes {
		for _, ext := range s.exts {
			if strings.HasSuffix(lower, ext) {
				return s.cat
			}
		}
	}

	return CategoryBinary
}
