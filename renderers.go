package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pivolan/media_ratings/domain/models"
)

// Человеческие подписи колонок для выгрузок соцдем отчета
var fgCSVLabels = map[string]string{
	"views":                        "Просмотры",
	"sex.male":                     "Мужчин",
	"sex.female":                   "Женщин",
	"age.15-17":                    "Возраст от 15 до 17",
	"age.18-24":                    "Возраст от 18 до 24",
	"age.25-34":                    "Возраст от 25 до 34",
	"age.35-44":                    "Возраст от 35 до 44",
	"age.45+":                      "Возраст после 45",
	"education.lte9":               "С не полным среднем",
	"education.11":                 "С среднем",
	"education.bachelor":           "С не полным высшим",
	"education.master":             "С высшим",
	"children_lt_16.yes":           "Дети младше 16 Есть",
	"children_lt_16.no":            "Дети младше 16 Нету",
	"marital_status.single":        "Не женатых/замужем",
	"marital_status.married":       "Женатых/Замужем",
	"marital_status.widow(er)":     "Вдовцов/Вдов",
	"marital_status.divorced":      "Разведенных",
	"marital_status.liveTogether":  "Проживающих вместе",
	"group.1":                      "Не имеют достаточно денег для приобретения продуктов",
	"group.2":                      "Имеют достаточно денег для приобретения продуктов",
	"group.3":                      "Имеют достаточно денег для приобретения продуктов и одежды",
	"group.4":                      "Имеют достаточно денег для приобретения товаров длительного пользования",
	"group.5":                      "Могут позволить себе покупать действительно дорогие вещи",
	"income.noAnswer":              "Доход Не ответили",
	"income.0-1000":                "Доход до 1000",
	"income.1001-2000":             "Доход от 1000 до 2000",
	"income.2001-3000":             "Доход от 2000 до 3000",
	"income.3001-4000":             "Доход от 3000 до 4000",
	"income.4001-5000":             "Доход от 4000 до 5000",
	"income.gt5001":                "Доход более 5000",
	"region.west":                  "Запад",
	"region.center":                "Центр",
	"region.east":                  "Восток",
	"region.south":                 "Юг",
	"typeNP.50+":                   "Тип НП 50+",
	"typeNP.50-":                   "Тип НП 50-",
	"occupation.businessOwner":     "Владелецев бизнеса с наёмными сотрудниками",
	"occupation.entrepreneur":      "Частных предпринимателей",
	"occupation.hiredManager":      "Наёмных руководителей",
	"occupation.middleManager":     "Руководителей среднего звена",
	"occupation.employee":          "Служащих",
	"occupation.skilledWorker":     "Квалифицированных рабочих",
	"occupation.otherWorkers":      "Других рабочих и технического персонала",
	"occupation.mobileWorker":      "Мобильных работников",
	"occupation.militaryPoliceman": "Военнослужащих/Сотрудников правоохранительных органов",
	"occupation.student":           "Студентов/Школьников",
	"occupation.pensioner":         "Пенсионеров",
	"occupation.disabled":          "Инвалидов",
	"occupation.housewife":         "Домохозяек",
	"occupation.maternityLeave":    "В декретном отпуске",
	"occupation.other":             "Другие",

	"occupation.masterDegreeSpecialist": "Специалистов с высшим образованием",
	"occupation.temporarilyUnemployed":  "Временно безработных/ищущих работу",
}

var admixerCSVLabels = map[string]string{
	"uniques":         "Уникальных пользователей",
	"views":           "Просмотров",
	"gender_groups.0": "Пол Неизвестно",
	"gender_groups.1": "Мужчин",
	"gender_groups.2": "Женщин",
	"age_groups.0":    "Возраст Неизвестно",
	"age_groups.1":    "Возраст до 18",
	"age_groups.2":    "Возраст от 18 до 24",
	"age_groups.3":    "Возраст от 25 до 34",
	"age_groups.4":    "Возраст от 35 до 44",
	"age_groups.5":    "Возраст после 45",
	"browsers.1":      "IE",
	"browsers.2":      "Firefox",
	"browsers.3":      "Chrome",
	"browsers.4":      "Safari",
	"browsers.5":      "Opera",
	"browsers.6":      "Yandex",
	"browsers.12":     "Edge",
	"platforms.19":    "WinXP",
	"platforms.21":    "Win7",
	"platforms.22":    "Win8",
	"platforms.24":    "Mac",
	"platforms.25":    "Linux",
	"platforms.28":    "Win10",
}

// flattenRow раскладывает словарные поля строки в плоские колонки вида
// "sex.male". Ключи вложенных словарей любых типов приводятся к строке.
func flattenRow(row map[string]interface{}) map[string]string {
	flat := map[string]string{}
	for field, value := range row {
		switch v := value.(type) {
		case models.DistMap:
			for k, n := range v {
				flat[field+"."+k] = fmt.Sprintf("%d", n)
			}
		case map[string]int64:
			for k, n := range v {
				flat[field+"."+k] = fmt.Sprintf("%d", n)
			}
		case map[int]int64:
			for k, n := range v {
				flat[fmt.Sprintf("%s.%d", field, k)] = fmt.Sprintf("%d", n)
			}
		case map[string]interface{}:
			// после json маршалинга вложенные словари приходят такими
			for k, n := range v {
				flat[field+"."+k] = formatCell(n)
			}
		default:
			flat[field] = formatCell(value)
		}
	}
	return flat
}

// formatCell печатает json-числа без дробной части
func formatCell(value interface{}) string {
	if f, ok := value.(float64); ok && f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}

// csvHeader собирает единый заголовок по всем строкам
func csvHeader(rows []map[string]string) []string {
	seen := map[string]struct{}{}
	var header []string
	for _, row := range rows {
		for key := range row {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				header = append(header, key)
			}
		}
	}
	sort.Strings(header)
	return header
}

// WriteCSV пишет отчет с разделителем ';' - формат согласован с
// потребителями выгрузок
func WriteCSV(w io.Writer, rows []map[string]interface{}, labels map[string]string) error {
	flat := make([]map[string]string, len(rows))
	for i, row := range rows {
		flat[i] = flattenRow(row)
	}
	header := csvHeader(flat)

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	titles := make([]string, len(header))
	for i, key := range header {
		if label, ok := labels[key]; ok {
			titles[i] = label
		} else {
			titles[i] = key
		}
	}
	if err := cw.Write(titles); err != nil {
		return err
	}
	for _, row := range flat {
		record := make([]string, len(header))
		for i, key := range header {
			record[i] = row[key]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable рисует отчет таблицей для бота и ?format=table
func RenderTable(rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return ""
	}
	flat := make([]map[string]string, len(rows))
	for i, row := range rows {
		flat[i] = flattenRow(row)
	}
	header := csvHeader(flat)

	t := table.NewWriter()
	headerRow := table.Row{}
	for _, key := range header {
		headerRow = append(headerRow, key)
	}
	t.AppendHeader(headerRow)
	for _, row := range flat {
		dataRow := table.Row{}
		for _, key := range header {
			dataRow = append(dataRow, row[key])
		}
		t.AppendRows([]table.Row{dataRow})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}

// rowsToMaps приводит типизированные строки отчета к словарям для рендера
func rowsToMaps(rows interface{}) []map[string]interface{} {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil
	}
	var generic []map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil
	}
	return generic
}
