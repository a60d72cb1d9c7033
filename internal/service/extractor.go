// Package service 包含了应用的业务逻辑层。
package service

import (
	"regexp"
	"strings"

	"travel-advisor-go/internal/model"
)

// countryVocabulary 是实体提取的固定词表：常见国家/地区名及其别名。
// 只做整词、大小写不敏感的精确匹配，不做模糊匹配。
var countryVocabulary = []string{
	"United States", "USA", "Canada", "Mexico", "UK", "United Kingdom", "England",
	"France", "Germany", "Italy", "Spain", "Japan", "China", "India", "Australia",
	"Brazil", "Argentina", "South Africa", "Egypt", "UAE", "Dubai", "Saudi Arabia",
	"Russia", "Singapore", "Thailand", "Vietnam", "Malaysia", "Indonesia",
	"Philippines", "South Korea", "North Korea", "New Zealand", "Ireland",
	"Scotland", "Wales", "Netherlands", "Belgium", "Switzerland", "Austria",
	"Sweden", "Norway", "Denmark", "Finland", "Poland", "Greece", "Turkey",
	"Israel", "Kenya", "Nigeria", "Ghana", "Morocco", "Algeria", "Tunisia",
	"Chile", "Peru", "Colombia", "Venezuela", "Portugal", "Croatia", "Serbia",
	"Romania", "Ukraine", "Kazakhstan", "Pakistan", "Bangladesh", "Nepal",
	"Sri Lanka", "Jordan", "Qatar", "Bahrain", "Kuwait", "Oman", "Iceland",
	"Greenland", "Cuba", "Jamaica", "Haiti", "Dominican Republic", "Panama",
	"Costa Rica", "Guatemala", "Honduras", "El Salvador", "Belize", "Mongolia",
	"Taiwan", "Hong Kong", "Macau",
}

var countryPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(countryVocabulary, "|") + `)\b`)

// ExtractCountries 扫描消息文本，返回去重后的国家实体，保持首次出现的顺序。
// 永不失败：无匹配时返回空切片。
func ExtractCountries(text string) []string {
	matches := countryPattern.FindAllString(text, -1)
	countries := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		countries = append(countries, m)
	}
	return countries
}

// ClassifyQuery 由实体提取结果推导查询类型：有实体即 country，否则 general。
// 分类刻意取粗粒度，只看是否出现词表中的国家，不做语义判断。
func ClassifyQuery(hasCountries bool) model.QueryType {
	if hasCountries {
		return model.QueryTypeCountry
	}
	return model.QueryTypeGeneral
}
