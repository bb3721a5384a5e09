package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
)

// parsePeriodLabel разбирает метку периода загрузки. Два формата:
// "10-2017" - месяц-год, окно на весь месяц;
// "3-25-2018" - день недели (0=воскресенье), номер недели (недели с
// понедельника, как %W), год - окно в 7 дней от вычисленной даты.
// Все остальное считается нечитаемой меткой.
func parsePeriodLabel(label string) (time.Time, time.Time, error) {
	parts := strings.Split(label, "-")
	switch len(parts) {
	case 2:
		month, err0 := strconv.Atoi(parts[0])
		year, err1 := strconv.Atoi(parts[1])
		if err0 != nil || err1 != nil || month < 1 || month > 12 || year < 1000 {
			return time.Time{}, time.Time{}, fmt.Errorf("bad month label %q", label)
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, end, nil
	case 3:
		weekday, err0 := strconv.Atoi(parts[0])
		week, err1 := strconv.Atoi(parts[1])
		year, err2 := strconv.Atoi(parts[2])
		if err0 != nil || err1 != nil || err2 != nil ||
			weekday < 0 || weekday > 6 || week < 0 || week > 53 || year < 1000 {
			return time.Time{}, time.Time{}, fmt.Errorf("bad week label %q", label)
		}
		start := weekLabelDate(year, week, weekday)
		return start, start.AddDate(0, 0, 6), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unparseable period label %q", label)
}

// weekLabelDate повторяет расчет strptime для %w-%W-%Y: недели начинаются
// с понедельника, дни до первого понедельника года это неделя 0
func weekLabelDate(year, week, weekday int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	firstWeekday := (int(jan1.Weekday()) + 6) % 7 // понедельник = 0
	// %w нумерует с воскресенья, переводим в понедельник = 0
	dayOfWeek := (weekday + 6) % 7
	var julian int
	if week == 0 {
		julian = 1 + dayOfWeek - firstWeekday
	} else {
		weekZeroLen := (7 - firstWeekday) % 7
		julian = 1 + weekZeroLen + 7*(week-1) + dayOfWeek
	}
	return jan1.AddDate(0, 0, julian-1)
}

// snapshotInPeriod: окно снапшота должно целиком лежать в запрошенном окне,
// частичное пересечение не считается
func snapshotInPeriod(label string, from, to time.Time) bool {
	start, end, err := parsePeriodLabel(label)
	if err != nil {
		// нечитаемая метка просто пропускается
		logrus.WithField("label", label).Debug("skip snapshot with unparseable period")
		return false
	}
	return !start.Before(from) && !end.After(to)
}

// SnapshotsInPeriod отбирает загрузки, чей период целиком попал в окно
func SnapshotsInPeriod(uploads []models.SnapshotUpload, from, to time.Time) []models.SnapshotUpload {
	var result []models.SnapshotUpload
	for _, up := range uploads {
		if snapshotInPeriod(up.Title, from, to) {
			result = append(result, up)
		}
	}
	return result
}

// ResolveLatestDetails оставляет по каждому ключу группировки одну строку -
// из загрузки с самой поздней датой, при равенстве побеждает последняя
// увиденная. Строки не сливаются, проигравшие отбрасываются целиком.
func ResolveLatestDetails(uploads []models.SnapshotUpload, rows []models.SocialDetails, from, to time.Time) map[string]models.SocialDetails {
	inPeriod := map[uint]time.Time{}
	for _, up := range SnapshotsInPeriod(uploads, from, to) {
		inPeriod[up.ID] = up.CreatedDate
	}

	winners := map[string]models.SocialDetails{}
	winnerDates := map[string]time.Time{}
	for _, row := range rows {
		uploaded, ok := inPeriod[row.UploadID]
		if !ok {
			continue
		}
		if prev, ok := winnerDates[row.ThemeTitle]; ok && uploaded.Before(prev) {
			continue
		}
		winners[row.ThemeTitle] = row
		winnerDates[row.ThemeTitle] = uploaded
	}
	return winners
}

// ResolveLatestRatings дедуплицирует кешированные строки рейтинга изданий:
// по каждому изданию побеждает строка с самой поздней датой создания.
// Та же политика что и у снапшотов, только ключ - время вставки.
func ResolveLatestRatings(rows []models.PublicationDemoRating) []models.PublicationDemoRating {
	winners := map[string]models.PublicationDemoRating{}
	order := []string{}
	for _, row := range rows {
		prev, ok := winners[row.Publication]
		if !ok {
			order = append(order, row.Publication)
			winners[row.Publication] = row
			continue
		}
		if !row.CreatedDate.Before(prev.CreatedDate) {
			winners[row.Publication] = row
		}
	}
	result := make([]models.PublicationDemoRating, 0, len(order))
	for _, key := range order {
		result = append(result, winners[key])
	}
	return result
}
