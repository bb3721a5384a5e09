package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type HeaderAnalysis struct {
	Headers        []string // итоговые заголовки
	FirstRowIsData bool     // первая строка уже данные
	FirstDataRow   []string
}

// заголовки вида sex.male, age.15-17, typeNP.50+, marital_status.widow(er)
var headerCleanRe = regexp.MustCompile(`[^a-zA-Z0-9._+()-]+`)

// AnalyzeHeaders определяет, есть ли в первой строке CSV заголовки.
// Выгрузки провайдеров приходят и с шапкой, и без нее.
func AnalyzeHeaders(firstRow []string) *HeaderAnalysis {
	if len(firstRow) == 0 {
		return nil
	}

	result := &HeaderAnalysis{
		Headers:      make([]string, len(firstRow)),
		FirstDataRow: firstRow,
	}

	headerLikeCount := 0
	for _, field := range firstRow {
		if isLikelyHeader(field) {
			headerLikeCount++
		}
	}

	if float64(headerLikeCount)/float64(len(firstRow)) >= 0.5 {
		for i, header := range firstRow {
			result.Headers[i] = cleanHeaderName(header, i)
		}
	} else {
		result.FirstRowIsData = true
		for i := range firstRow {
			result.Headers[i] = generateColumnName(i)
		}
	}

	result.Headers = ValidateHeaders(result.Headers)
	return result
}

// isLikelyHeader - эвристика: числа и даты заголовками не бывают
func isLikelyHeader(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return false
	}

	datePatterns := []string{
		`^\d{4}-\d{2}-\d{2}$`,
		`^\d{2}/\d{2}/\d{4}$`,
		`^\d{2}\.\d{2}\.\d{4}$`,
	}
	for _, pattern := range datePatterns {
		if matched, _ := regexp.MatchString(pattern, text); matched {
			return false
		}
	}

	letters := 0
	total := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return false
	}
	return letters > 0 && float64(letters)/float64(total) >= 0.3
}

func generateColumnName(index int) string {
	return fmt.Sprintf("column_%d", index+1)
}

// ValidateHeaders дописывает счетчик к повторяющимся именам
func ValidateHeaders(headers []string) []string {
	seen := map[string]bool{}
	result := make([]string, len(headers))

	for i, header := range headers {
		name := header
		for counter := 1; seen[name]; counter++ {
			name = fmt.Sprintf("%s_%d", header, counter)
		}
		seen[name] = true
		result[i] = name
	}
	return result
}

func cleanHeaderName(header string, index int) string {
	header = strings.TrimSpace(header)
	if header == "" || !isLikelyHeader(header) {
		return generateColumnName(index)
	}
	// регистр сохраняется, ключи словаря вида typeNP.50+ чувствительны к нему
	cleaned := strings.Trim(headerCleanRe.ReplaceAllString(header, "_"), "_")
	if cleaned == "" {
		return generateColumnName(index)
	}
	return cleaned
}
