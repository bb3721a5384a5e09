package main

import (
	"sort"
	"strconv"
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
)

// queryFunc - один групповой запрос к хранилищу аналитики по пачке
// идентификаторов. Подменяется в тестах.
type queryFunc func(batch []string) ([]models.AnalyticsRow, error)

// ratingAccumulator копит статистику одного ключа группировки по мере
// прихода пачек. Аккумулятор явный и передается по шагам, скрытого
// состояния на клиенте нет. seen не дает засчитать один и тот же
// идентификатор дважды, даже если он пришел в двух пачках.
type ratingAccumulator struct {
	seen         map[string]struct{}
	views        int64
	uniques      int64
	platforms    map[int]int64
	browsers     map[int]int64
	regions      map[string]int64
	ageGroups    map[int]int64
	genderGroups map[int]int64
	incomeGroups map[int]int64
}

func newRatingAccumulator() *ratingAccumulator {
	return &ratingAccumulator{
		seen:         map[string]struct{}{},
		platforms:    map[int]int64{},
		browsers:     map[int]int64{},
		regions:      map[string]int64{},
		ageGroups:    map[int]int64{},
		genderGroups: map[int]int64{},
		incomeGroups: map[int]int64{},
	}
}

// addBatch вливает результат одной пачки. Внутри пачки один идентификатор
// дает несколько строк (по сочетаниям измерений) - они все считаются,
// но идентификатор, уже учтенный прошлыми пачками, пропускается целиком.
func (a *ratingAccumulator) addBatch(rows []models.AnalyticsRow) {
	batchIDs := map[string]struct{}{}
	for _, r := range rows {
		if _, ok := a.seen[r.TrackID]; ok {
			continue
		}
		batchIDs[r.TrackID] = struct{}{}
		a.views += r.Views
		a.uniques += r.Uniques
		a.platforms[r.Platform]++
		a.browsers[r.Browser]++
		a.regions[r.Region]++
		a.ageGroups[r.Age]++
		a.genderGroups[r.Gender]++
		a.incomeGroups[r.Income]++
	}
	for id := range batchIDs {
		a.seen[id] = struct{}{}
	}
}

func (a *ratingAccumulator) row(key string) models.AdmixerRatingRow {
	return models.AdmixerRatingRow{
		Aggregator:   key,
		Views:        a.views,
		Uniques:      a.uniques,
		Platforms:    a.platforms,
		Browsers:     a.browsers,
		Regions:      a.regions,
		AgeGroups:    a.ageGroups,
		GenderGroups: a.genderGroups,
		IncomeGroups: a.incomeGroups,
	}
}

// BuildAdmixerRating строит соцдем рейтинг по данным ClickHouse: на каждый
// ключ группировки пачки идентификаторов уходят в аналитику строго
// последовательно, результат копится в аккумуляторе ключа. Ошибка любой
// пачки прерывает весь отчет.
func BuildAdmixerRating(groups map[string][]string, query queryFunc) ([]models.AdmixerRatingRow, error) {
	return buildAdmixerRating(groups, query, maxIDsPerQuery)
}

func buildAdmixerRating(groups map[string][]string, query queryFunc, batchSize int) ([]models.AdmixerRatingRow, error) {
	total := 0
	for _, ids := range groups {
		total += len(ids)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	current := 0
	result := make([]models.AdmixerRatingRow, 0, len(keys))
	for _, key := range keys {
		acc := newRatingAccumulator()
		for _, batch := range chunkIDs(groups[key], batchSize) {
			logrus.Infof("Sent %d ids", len(batch))
			rows, err := query(batch)
			if err != nil {
				return nil, err
			}
			acc.addBatch(rows)
			current += len(batch)
			logrus.Infof("Processed: %d/%d", current, total)
		}
		result = append(result, acc.row(key))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Views > result[j].Views
	})
	return result, nil
}

// weekBucket сводит дату к понедельнику ее недели
func weekBucket(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// dimValue достает выбранное измерение строки как строковый ключ гистограммы
func dimValue(r models.AnalyticsRow, dim string) (string, bool) {
	switch dim {
	case "platform":
		return strconv.Itoa(r.Platform), true
	case "browser":
		return strconv.Itoa(r.Browser), true
	case "region":
		return r.Region, true
	case "age":
		return strconv.Itoa(r.Age), true
	case "gender":
		return strconv.Itoa(r.Gender), true
	case "income":
		return strconv.Itoa(r.Income), true
	}
	return "", false
}

// BuildAdmixerDynamics строит понедельную динамику по ключам группировки,
// опционально с гистограммой одного измерения
func BuildAdmixerDynamics(groups map[string][]string, dim string, query queryFunc) ([]models.AdmixerDateRow, error) {
	return buildAdmixerDynamics(groups, dim, query, maxIDsPerQuery)
}

func buildAdmixerDynamics(groups map[string][]string, dim string, query queryFunc, batchSize int) ([]models.AdmixerDateRow, error) {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result []models.AdmixerDateRow
	for _, key := range keys {
		weeks := map[time.Time]*models.AdmixerDateRow{}
		for _, batch := range chunkIDs(groups[key], batchSize) {
			rows, err := query(batch)
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				week := weekBucket(r.Date)
				acc, ok := weeks[week]
				if !ok {
					acc = &models.AdmixerDateRow{KeyWord: key, Date: week, Dim: map[string]int64{}}
					weeks[week] = acc
				}
				acc.Views += r.Views
				acc.Uniques += r.Uniques
				if dim != "" {
					if v, ok := dimValue(r, dim); ok {
						acc.Dim[v]++
					}
				}
			}
		}
		dates := make([]time.Time, 0, len(weeks))
		for d := range weeks {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for _, d := range dates {
			result = append(result, *weeks[d])
		}
	}
	return result, nil
}
