package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Comment - запись в ленте комментариев заказа. At == nil, если время неизвестно.
type Comment struct {
	Text string
	At   *time.Time
}

type commentJSON struct {
	Text      string          `json:"text"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// MarshalJSON пишет время как миллисекунды Unix, как в сохранённых записях.
func (c Comment) MarshalJSON() ([]byte, error) {
	ts := json.RawMessage("null")
	if c.At != nil {
		ts = json.RawMessage(strconv.FormatInt(c.At.UnixMilli(), 10))
	}
	return json.Marshal(commentJSON{Text: c.Text, Timestamp: ts})
}

// UnmarshalJSON принимает объект {text, timestamp} или голую строку.
func (c *Comment) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Comment{Text: s}
		return nil
	}

	var aux commentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Comment{Text: aux.Text, At: parseTimestamp(aux.Timestamp)}
	return nil
}

// parseTimestamp понимает миллисекунды Unix и RFC3339.
func parseTimestamp(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil
		}
		return &t
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

// Comments - упорядоченная лента комментариев; только дополняется.
type Comments []Comment

// UnmarshalJSON никогда не падает: повреждённые данные превращаются в один синтетический комментарий.
func (cs *Comments) UnmarshalJSON(data []byte) error {
	*cs = decodeComments(data)
	return nil
}

// ParseComments разбирает сохранённое значение колонки comments.
// Строка, не являющаяся JSON, считается одним комментарием без времени.
func ParseComments(raw string) Comments {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	switch trimmed[0] {
	case '[', '"', '{':
		return decodeComments([]byte(trimmed))
	}
	if trimmed == "null" {
		return nil
	}
	return Comments{{Text: raw}}
}

// Encode сериализует ленту для хранения.
func (cs Comments) Encode() string {
	if cs == nil {
		cs = Comments{}
	}
	data, err := json.Marshal([]Comment(cs))
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeComments(data []byte) Comments {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	switch data[0] {
	case '[':
		var list []Comment
		if err := json.Unmarshal(data, &list); err == nil {
			return Comments(list)
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			break
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
		// строка может содержать сериализованный список
		if inner := strings.TrimSpace(s); strings.HasPrefix(inner, "[") {
			var list []Comment
			if err := json.Unmarshal([]byte(inner), &list); err == nil {
				return Comments(list)
			}
		}
		return Comments{{Text: s}}
	}

	return Comments{{Text: string(data)}}
}
