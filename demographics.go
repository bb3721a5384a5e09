package main

import (
	"fmt"

	"github.com/pivolan/media_ratings/domain/models"
)

// Словарь категорий соцдем отчета провайдера. Порядок ключей фиксирован,
// значения вне словаря отбрасываются при слиянии.
var demoCategories = []string{
	"sex", "age", "education", "children_lt_16", "marital_status",
	"occupation", "group", "income", "region", "typeNP",
}

var demoVocabulary = map[string][]string{
	"sex":            {"male", "female"},
	"age":            {"15-17", "18-24", "25-34", "35-44", "45+"},
	"education":      {"lte9", "11", "bachelor", "master"},
	"children_lt_16": {"yes", "no"},
	"marital_status": {"single", "married", "widow(er)", "divorced", "liveTogether"},
	"occupation": {"businessOwner", "entrepreneur", "hiredManager", "middleManager",
		"masterDegreeSpecialist", "employee", "skilledWorker", "otherWorkers",
		"mobileWorker", "militaryPoliceman", "student", "pensioner", "disabled",
		"housewife", "maternityLeave", "temporarilyUnemployed", "other"},
	"group":  {"1", "2", "3", "4", "5"},
	"income": {"noAnswer", "0-1000", "1001-2000", "2001-3000", "3001-4000", "4001-5000", "gt5001"},
	"region": {"west", "center", "east", "south"},
	"typeNP": {"50+", "50-"},
}

// DemoProfile - аккумулятор взвешенного слияния распределений.
// Views копится как float64, округление вниз только при чтении.
type DemoProfile struct {
	Views float64
	Cats  map[string]models.DistMap
}

// NewDemoProfile возвращает аккумулятор, заполненный нулями по словарю
func NewDemoProfile() DemoProfile {
	cats := make(map[string]models.DistMap, len(demoCategories))
	for _, cat := range demoCategories {
		dist := make(models.DistMap, len(demoVocabulary[cat]))
		for _, key := range demoVocabulary[cat] {
			dist[key] = 0
		}
		cats[cat] = dist
	}
	return DemoProfile{Cats: cats}
}

// TotalViews - итоговые просмотры, усеченные до целого
func (p DemoProfile) TotalViews() int64 {
	return int64(p.Views)
}

// MergeWeighted вливает один источник в аккумулятор. views - наблюдение
// источника, dists - его процентные распределения, specific/all - доля
// текущей области агрегации в родительской. Вклад каждой корзины усекается
// вниз по каждому источнику отдельно, итог систематически занижен - так
// считал провайдер, поведение воспроизводится нарочно.
// При all == 0 источник не дает ничего, деления на ноль нет.
func MergeWeighted(total DemoProfile, views int64, dists map[string]models.DistMap, all, specific int64) DemoProfile {
	if all <= 0 {
		return total
	}
	scaled := float64(views) * float64(specific) / float64(all)
	for _, cat := range demoCategories {
		src, ok := dists[cat]
		if !ok {
			continue
		}
		for key := range total.Cats[cat] {
			if pct, ok := src[key]; ok {
				total.Cats[cat][key] += int64(float64(pct) / 100.0 * scaled)
			}
		}
	}
	total.Views += scaled
	return total
}

// SumDistributions - прямое невзвешенное сложение строк с одинаковым ключом,
// для отчетов где периоды не пересекаются
func SumDistributions(total DemoProfile, views int64, dists map[string]models.DistMap) DemoProfile {
	for _, cat := range demoCategories {
		src, ok := dists[cat]
		if !ok {
			continue
		}
		for key, v := range src {
			if _, ok := total.Cats[cat][key]; ok {
				total.Cats[cat][key] += v
			}
		}
	}
	total.Views += float64(views)
	return total
}

// ValidateProfile проверяет что в профиле нет корзин вне словаря.
// Ошибка отбрасывает всю партию, построчного восстановления нет.
func ValidateProfile(p DemoProfile) error {
	for cat, dist := range p.Cats {
		keys, ok := demoVocabulary[cat]
		if !ok {
			return fmt.Errorf("unexpected category %q", cat)
		}
		allowed := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			allowed[k] = struct{}{}
		}
		for k := range dist {
			if _, ok := allowed[k]; !ok {
				return fmt.Errorf("unexpected key %q in category %q", k, cat)
			}
		}
	}
	return nil
}

// detailsDistMap раскладывает строку соцдем отчета в словарь категорий
func detailsDistMap(sd models.SocialDetails) map[string]models.DistMap {
	return map[string]models.DistMap{
		"sex":            sd.Sex,
		"age":            sd.Age,
		"education":      sd.Education,
		"children_lt_16": sd.ChildrenLt16,
		"marital_status": sd.MaritalStatus,
		"occupation":     sd.Occupation,
		"group":          sd.Group,
		"income":         sd.Income,
		"region":         sd.Region,
		"typeNP":         sd.TypeNP,
	}
}

// profileRating переносит аккумулятор в строку кеша рейтинга изданий
func profileRating(publication string, p DemoProfile) models.PublicationDemoRating {
	return models.PublicationDemoRating{
		Publication:   publication,
		Views:         p.TotalViews(),
		Sex:           p.Cats["sex"],
		Age:           p.Cats["age"],
		Education:     p.Cats["education"],
		ChildrenLt16:  p.Cats["children_lt_16"],
		MaritalStatus: p.Cats["marital_status"],
		Occupation:    p.Cats["occupation"],
		Group:         p.Cats["group"],
		Income:        p.Cats["income"],
		Region:        p.Cats["region"],
		TypeNP:        p.Cats["typeNP"],
	}
}

// ratingDistMap - обратная раскладка строки кеша в словарь категорий
func ratingDistMap(r models.PublicationDemoRating) map[string]models.DistMap {
	return map[string]models.DistMap{
		"sex":            r.Sex,
		"age":            r.Age,
		"education":      r.Education,
		"children_lt_16": r.ChildrenLt16,
		"marital_status": r.MaritalStatus,
		"occupation":     r.Occupation,
		"group":          r.Group,
		"income":         r.Income,
		"region":         r.Region,
		"typeNP":         r.TypeNP,
	}
}

// demoRow собирает строку ответа с категориями на верхнем уровне,
// как отдает провайдер
func demoRow(keyField, key string, p DemoProfile) map[string]interface{} {
	row := map[string]interface{}{
		keyField: key,
		"views":  p.TotalViews(),
	}
	for _, cat := range demoCategories {
		row[cat] = p.Cats[cat]
	}
	return row
}
