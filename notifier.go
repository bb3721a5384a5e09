package main

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pivolan/media_ratings/config"
	"github.com/pivolan/media_ratings/plot"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notifier - служебный telegram бот. Шлет оператору итоги пересборки
// кеша и отвечает на быстрые запросы рейтинга прямо в чате.
// Без токена в конфиге все методы молча ничего не делают.
type Notifier struct {
	cfg *config.Config
	db  *gorm.DB
	api *tgbotapi.BotAPI
}

func NewNotifier(cfg *config.Config, db *gorm.DB) *Notifier {
	n := &Notifier{cfg: cfg, db: db}
	if cfg.TgToken == "" {
		return n
	}
	api, err := tgbotapi.NewBotAPI(cfg.TgToken)
	if err != nil {
		logrus.Errorf("Telegram bot init failed: %v", err)
		return n
	}
	n.api = api
	return n
}

func (n *Notifier) SweepFinished(tracks, rows int) {
	n.send(fmt.Sprintf("Кеш статистики пересобран: %d треков, %d строк", tracks, rows))
}

func (n *Notifier) SweepFailed(err error) {
	n.send(fmt.Sprintf("Пересборка кеша упала: %v", err))
}

func (n *Notifier) send(text string) {
	if n.api == nil || n.cfg.TgChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(n.cfg.TgChatID, text)
	if _, err := n.api.Send(msg); err != nil {
		logrus.Errorf("Telegram send failed: %v", err)
	}
}

// Listen крутит цикл обновлений бота, вызывается из отдельной горутины
func (n *Notifier) Listen() {
	if n.api == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := n.api.GetUpdatesChan(u)
	if err != nil {
		logrus.Errorf("Telegram updates failed: %v", err)
		return
	}
	for update := range updates {
		if update.Message == nil {
			continue
		}
		if update.Message.IsCommand() {
			n.handleCommand(update)
			continue
		}
		n.reply(update, "Команды: /rating_<ключевое слово> - понедельная динамика упоминаний")
	}
}

func (n *Notifier) handleCommand(update tgbotapi.Update) {
	command := update.Message.Command()
	const ratingPrefix = "rating_"

	switch {
	case strings.HasPrefix(command, ratingPrefix):
		keyWord := strings.TrimPrefix(command, ratingPrefix)
		if keyWord == "" {
			n.reply(update, "Укажите ключевое слово после rating_")
			return
		}
		n.handleRatingCommand(update, keyWord)
	default:
		n.reply(update, "Неизвестная команда. Используйте: /rating_<ключевое слово>")
	}
}

// handleRatingCommand отвечает таблицей и графиком понедельных
// упоминаний по одному ключевому слову
func (n *Notifier) handleRatingCommand(update tgbotapi.Update, keyWord string) {
	from, _ := time.Parse("2006-01-02", n.cfg.DefaultFromDate)
	to, _ := time.Parse("2006-01-02", n.cfg.DefaultToDate)
	catalog := NewCatalog(n.db)

	rows, err := catalog.WeeklyCounts(CatalogFilter{KeyWords: []string{keyWord}, From: from, To: to})
	if err != nil {
		logrus.Errorf("Weekly counts for %q failed: %v", keyWord, err)
		n.reply(update, "Ошибка получения рейтинга")
		return
	}
	if len(rows) == 0 {
		n.reply(update, fmt.Sprintf("По слову %q ничего не найдено", keyWord))
		return
	}

	n.reply(update, RenderTable(rowsToMaps(rows)))

	weeks, values := totalsByWeek(rows)
	buf, err := plot.DrawPlotBar(plot.NewWeekSeries(weeks, values, keyWord))
	if err != nil {
		logrus.Errorf("Chart for %q failed: %v", keyWord, err)
		return
	}
	png := tgbotapi.FileBytes{
		Name:  fmt.Sprintf("rating_%s_%s.png", keyWord, time.Now().Format("20060102-150405")),
		Bytes: buf.Bytes(),
	}
	photo := tgbotapi.NewPhotoUpload(update.Message.Chat.ID, png)
	photo.Caption = fmt.Sprintf("Упоминания по неделям: %s", keyWord)
	if _, err = n.api.Send(photo); err != nil {
		logrus.Errorf("Telegram photo send failed: %v", err)
	}
}

func (n *Notifier) reply(update tgbotapi.Update, text string) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, text)
	if _, err := n.api.Send(msg); err != nil {
		logrus.Errorf("Telegram send failed: %v", err)
	}
}
