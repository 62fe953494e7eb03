// Package testutil provides fakes shared by handler and router tests.
package testutil

import (
	"sync"

	telebot "gopkg.in/telebot.v3"
)

// Call records one outgoing Send or Edit.
type Call struct {
	What interface{}
	Opts []interface{}
}

// Text returns the message text, or the caption for photos.
func (c Call) Text() string {
	switch what := c.What.(type) {
	case string:
		return what
	case *telebot.Photo:
		return what.Caption
	}
	return ""
}

// Markup returns the reply markup passed with the call, if any.
func (c Call) Markup() *telebot.ReplyMarkup {
	for _, opt := range c.Opts {
		if markup, ok := opt.(*telebot.ReplyMarkup); ok {
			return markup
		}
	}
	return nil
}

// Context is an in-memory telebot.Context. Methods it does not override panic through the nil
// embedded interface, which flags handlers reaching for something unexpected.
type Context struct {
	telebot.Context

	UpdateID int
	Msg      *telebot.Message
	Cb       *telebot.Callback
	User     *telebot.User
	ChatRef  *telebot.Chat

	SendErr   error
	EditErr   error
	DeleteErr error

	mu        sync.Mutex
	Sent      []Call
	Edited    []Call
	Deleted   int
	Responses []*telebot.CallbackResponse
	store     map[string]interface{}
}

// NewMessage builds a text message update from userID in a chat of the given type.
func NewMessage(userID int64, chatType telebot.ChatType, text string) *Context {
	chat := chatFor(userID, chatType)
	user := &telebot.User{ID: userID, FirstName: "Test"}
	return &Context{
		User:    user,
		ChatRef: chat,
		Msg:     &telebot.Message{ID: 1, Sender: user, Chat: chat, Text: text},
	}
}

// NewPhoto builds a photo message update.
func NewPhoto(userID int64, fileID, caption string) *Context {
	c := NewMessage(userID, telebot.ChatPrivate, "")
	c.Msg.Photo = &telebot.Photo{File: telebot.File{FileID: fileID}}
	c.Msg.Caption = caption
	return c
}

// NewCallback builds a callback query pressed on a bot text message.
func NewCallback(userID int64, chatType telebot.ChatType, data string) *Context {
	chat := chatFor(userID, chatType)
	user := &telebot.User{ID: userID, FirstName: "Test"}
	msg := &telebot.Message{ID: 10, Chat: chat, Text: "previous screen"}
	return &Context{
		User:    user,
		ChatRef: chat,
		Msg:     msg,
		Cb:      &telebot.Callback{ID: "cb-1", Sender: user, Message: msg, Data: data},
	}
}

func chatFor(userID int64, chatType telebot.ChatType) *telebot.Chat {
	if chatType == telebot.ChatPrivate {
		return &telebot.Chat{ID: userID, Type: chatType}
	}
	return &telebot.Chat{ID: -100500, Type: chatType}
}

func (c *Context) Update() telebot.Update {
	return telebot.Update{ID: c.UpdateID, Message: c.Msg, Callback: c.Cb}
}

func (c *Context) Message() *telebot.Message {
	return c.Msg
}

func (c *Context) Callback() *telebot.Callback {
	return c.Cb
}

func (c *Context) Sender() *telebot.User {
	return c.User
}

func (c *Context) Chat() *telebot.Chat {
	return c.ChatRef
}

func (c *Context) Text() string {
	if c.Msg == nil {
		return ""
	}
	if c.Msg.Caption != "" {
		return c.Msg.Caption
	}
	return c.Msg.Text
}

func (c *Context) Send(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, Call{What: what, Opts: opts})
	return nil
}

func (c *Context) Edit(what interface{}, opts ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EditErr != nil {
		return c.EditErr
	}
	c.Edited = append(c.Edited, Call{What: what, Opts: opts})
	return nil
}

func (c *Context) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DeleteErr != nil {
		return c.DeleteErr
	}
	c.Deleted++
	return nil
}

func (c *Context) Respond(resp ...*telebot.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r *telebot.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	c.Responses = append(c.Responses, r)
	return nil
}

func (c *Context) Get(key string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]interface{})
	}
	c.store[key] = value
}

// LastText returns the text of the most recent Send, or of the most recent Edit when nothing was sent.
func (c *Context) LastText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) > 0 {
		return c.Sent[len(c.Sent)-1].Text()
	}
	if len(c.Edited) > 0 {
		return c.Edited[len(c.Edited)-1].Text()
	}
	return ""
}

// Outputs returns all texts shown to the user, sends and edits interleaved by kind.
func (c *Context) Outputs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Edited)+len(c.Sent))
	for _, call := range c.Edited {
		out = append(out, call.Text())
	}
	for _, call := range c.Sent {
		out = append(out, call.Text())
	}
	return out
}
