package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

type textContent struct {
	Content string `json:"content"`
}

type atTargets struct {
	IsAtAll bool `json:"isAtAll"`
}

type message struct {
	MsgType string      `json:"msgtype"`
	Text    textContent `json:"text"`
	At      atTargets   `json:"at"`
}

type result struct {
	ErrCode int64  `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Notifier pushes operator alerts to a DingTalk-style text webhook. An
// empty url disables it; alerting is never on the trading path.
type Notifier struct {
	url    string
	client *http.Client
	logger *log.Logger
}

func NewNotifier(url string, logger *log.Logger) *Notifier {
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: time.Second * 10},
		logger: logger,
	}
}

func (notifier *Notifier) Send(text string) error {
	if notifier.url == "" {
		return nil
	}
	payload, err := json.Marshal(&message{
		MsgType: "text",
		Text:    textContent{Content: text},
		At:      atTargets{IsAtAll: false},
	})
	if err != nil {
		return err
	}
	request, err := http.NewRequest(http.MethodPost, notifier.url, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	request.Header.Set("Accepts", "application/json")
	request.Header.Set("Content-Type", "application/json")
	response, err := notifier.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("response status code: %d", response.StatusCode)
	}
	body, _ := io.ReadAll(response.Body)
	reply := new(result)
	if err := json.Unmarshal(body, reply); err != nil {
		return err
	}
	if reply.ErrCode != 0 || reply.ErrMsg != "ok" {
		return fmt.Errorf("code: %d, err: %s", reply.ErrCode, reply.ErrMsg)
	}
	return nil
}

// AlertTerminal reports an intent that failed for good.
func (notifier *Notifier) AlertTerminal(side, mint string, cause error) {
	text := fmt.Sprintf("sniper %s %s failed: %s;\ntime: %s;",
		side, mint, cause.Error(), time.Now().Format("2006-01-02 15:04:05"))
	if err := notifier.Send(text); err != nil {
		notifier.logger.Printf("alert err: %s", err.Error())
	}
}

// AlertUnrecorded reports a swap that landed on chain but could not be
// booked. This is not a trading failure, the position exists and the
// books are behind.
func (notifier *Notifier) AlertUnrecorded(side, mint, signature string, cause error) {
	text := fmt.Sprintf("sniper %s %s landed with signature %s but was not recorded: %s;\ntime: %s;",
		side, mint, signature, cause.Error(), time.Now().Format("2006-01-02 15:04:05"))
	if err := notifier.Send(text); err != nil {
		notifier.logger.Printf("alert err: %s", err.Error())
	}
}

// AlertIndeterminate reports an outcome that needs a human look: the
// transaction may have landed without being booked.
func (notifier *Notifier) AlertIndeterminate(side, mint, signature string) {
	text := fmt.Sprintf("sniper %s %s indeterminate, signature %s;\ntime: %s;",
		side, mint, signature, time.Now().Format("2006-01-02 15:04:05"))
	if err := notifier.Send(text); err != nil {
		notifier.logger.Printf("alert err: %s", err.Error())
	}
}
