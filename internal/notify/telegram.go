package notify

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/telebot.v3"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/logging"
	"github.com/manav03panchal/medalert/internal/model"
)

// Messenger is the part of the Telegram bot API the sink uses.
// *telebot.Bot satisfies it.
type Messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Delete(msg telebot.Editable) error
}

type telegramMessage struct {
	msg       *telebot.Message
	dismissed bool
}

// TelegramSink sends alerts to a Telegram chat. With deleteOnDismiss the
// message is deleted when the alert is dismissed or expires.
type TelegramSink struct {
	bot             Messenger
	chat            *telebot.Chat
	deleteOnDismiss bool

	mu   sync.Mutex
	sent map[model.AlertKey]*telegramMessage
	wg   sync.WaitGroup
}

// NewTelegramBot creates an offline bot client for sending only.
func NewTelegramBot(token string) (*telebot.Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// NewTelegramSink creates a Telegram sink for chatID.
func NewTelegramSink(bot Messenger, chatID int64, deleteOnDismiss bool) *TelegramSink {
	return &TelegramSink{
		bot:             bot,
		chat:            &telebot.Chat{ID: chatID},
		deleteOnDismiss: deleteOnDismiss,
		sent:            make(map[model.AlertKey]*telegramMessage),
	}
}

// NewTelegramSinkFromConfig builds the sink from cfg. It returns nil when
// Telegram is not configured.
func NewTelegramSinkFromConfig(cfg config.TelegramConfig) (*TelegramSink, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	bot, err := NewTelegramBot(cfg.Token)
	if err != nil {
		return nil, err
	}
	return NewTelegramSink(bot, cfg.ChatID, cfg.DeleteOnDismiss), nil
}

// FormatTelegram renders e as a Telegram message.
func FormatTelegram(e model.AlertEvent) string {
	title, body := AlertContent(e)
	return fmt.Sprintf("%s\n%s\n%s", title, e.Name, body)
}

// PresentAlert sends the message in the background.
func (s *TelegramSink) PresentAlert(_ context.Context, e model.AlertEvent) {
	key := e.Key()
	text := FormatTelegram(e)

	s.mu.Lock()
	entry := &telegramMessage{}
	s.sent[key] = entry
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		msg, err := s.bot.Send(s.chat, text)
		if err != nil {
			logging.Warn("telegram alert failed", logging.KeyAlertKey, key.String(), logging.KeyError, err)
			s.forget(key, entry)
			return
		}

		s.mu.Lock()
		entry.msg = msg
		dismissed := entry.dismissed
		s.mu.Unlock()

		// Dismissed while the send was in flight.
		if dismissed {
			s.forget(key, entry)
			s.delete(key, msg)
		}
	}()
}

// DismissAlert deletes the message when deleteOnDismiss is set.
func (s *TelegramSink) DismissAlert(key model.AlertKey) {
	s.mu.Lock()
	entry, ok := s.sent[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	if !s.deleteOnDismiss {
		delete(s.sent, key)
		s.mu.Unlock()
		return
	}
	entry.dismissed = true
	msg := entry.msg
	if msg != nil {
		delete(s.sent, key)
	}
	s.mu.Unlock()

	if msg != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.delete(key, msg)
		}()
	}
}

// Wait blocks until pending sends and deletions finish.
func (s *TelegramSink) Wait() {
	s.wg.Wait()
}

func (s *TelegramSink) forget(key model.AlertKey, entry *telegramMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sent[key]; ok && cur == entry {
		delete(s.sent, key)
	}
}

func (s *TelegramSink) delete(key model.AlertKey, msg *telebot.Message) {
	if err := s.bot.Delete(msg); err != nil {
		logging.Warn("telegram delete failed", logging.KeyAlertKey, key.String(), logging.KeyError, err)
	}
}
