// Package validation holds the field rules shared by the enrollment wizard,
// the profile completion form and request DTOs.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	nonDigits   = regexp.MustCompile(`\D`)
	emailFormat = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameFormat  = regexp.MustCompile(`^[A-Za-zÀ-ÖØ-öø-ÿ ]+$`)
)

// Accepted birth date layouts: ISO (form inputs) and dd/mm/yyyy (masked inputs).
var birthDateLayouts = []string{"2006-01-02", "02/01/2006"}

const (
	MinAge = 16
	MaxAge = 100
)

// Digits strips every non-digit character.
func Digits(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// CPF validates a Brazilian individual taxpayer number including both check
// digits. Formatting characters are ignored.
func CPF(raw string) bool {
	digits := Digits(raw)
	if len(digits) != 11 {
		return false
	}
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}
	d := make([]int, 11)
	for i := range digits {
		d[i] = int(digits[i] - '0')
	}
	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, digit := range digits {
		sum += digit * (firstWeight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

// CEP validates a postal code: exactly eight digits once formatting is removed.
func CEP(raw string) bool {
	return len(Digits(raw)) == 8
}

// Email performs a simple shape check, not full RFC validation.
func Email(raw string) bool {
	return emailFormat.MatchString(raw)
}

// Phone accepts landlines (10 digits) and mobiles (11 digits).
func Phone(raw string) bool {
	n := len(Digits(raw))
	return n == 10 || n == 11
}

// ParseBirthDate parses the accepted birth date layouts.
func ParseBirthDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Age returns the completed years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// BirthDate accepts dates for which the age relative to now is between
// MinAge and MaxAge inclusive.
func BirthDate(raw string, now time.Time) bool {
	birth, ok := ParseBirthDate(raw)
	if !ok {
		return false
	}
	age := Age(birth, now)
	return age >= MinAge && age <= MaxAge
}

// Name accepts at least two characters made of letters (accented Latin
// included) and spaces.
func Name(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < 2 {
		return false
	}
	return nameFormat.MatchString(trimmed)
}

// RG accepts identity document numbers carrying 7 to 9 digits.
func RG(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	n := len(Digits(raw))
	return n >= 7 && n <= 9
}

// File describes an uploaded file for size and count checks.
type File struct {
	Name string
	Size int64
}

// FileLimits bounds a file set.
type FileLimits struct {
	MaxFiles    int
	MaxFileSize int64
}

// DefaultFileLimits allows five files of up to 10 MB each.
func DefaultFileLimits() FileLimits {
	return FileLimits{MaxFiles: 5, MaxFileSize: 10 * 1024 * 1024}
}

func (l FileLimits) withDefaults() FileLimits {
	def := DefaultFileLimits()
	if l.MaxFiles <= 0 {
		l.MaxFiles = def.MaxFiles
	}
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = def.MaxFileSize
	}
	return l
}

// Files checks a file set and reports every problem found.
func Files(field string, files []File, limits FileLimits) Errors {
	limits = limits.withDefaults()
	var errs Errors
	if len(files) == 0 {
		errs = append(errs, FieldError{Field: field, Message: "envie pelo menos um arquivo"})
	}
	if len(files) > limits.MaxFiles {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("envie no máximo %d arquivos", limits.MaxFiles)})
	}
	for _, f := range files {
		if f.Size > limits.MaxFileSize {
			errs = append(errs, FieldError{
				Field:   field,
				Message: fmt.Sprintf("o arquivo %s excede o tamanho máximo de %s", f.Name, formatSize(limits.MaxFileSize)),
			})
		}
	}
	return errs
}

func formatSize(bytes int64) string {
	const mb = 1024 * 1024
	if bytes%mb == 0 {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
}
