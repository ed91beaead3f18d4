package api

import (
	"errors"
	"fmt"

	"choromap/internal/app"
	"choromap/internal/highlight"
	"choromap/internal/measure"
	"choromap/internal/region"
)

// 出站消息类型
const (
	TypeStyle           = "style"
	TypeFront           = "front"
	TypeFit             = "fit"
	TypeInfo            = "info"
	TypeInfoClear       = "info_clear"
	TypeSuggestions     = "suggestions"
	TypeSuggestionsHide = "suggestions_hide"
	TypeQuery           = "query"
	TypeNotice          = "notice"
	TypeMeasure         = "measure"
	TypeRegionsReady    = "regions_ready"
	TypeSync            = "sync"
	TypeError           = "error"
)

// 入站消息类型（query、measure 与出站同名）
const (
	TypePointerOver = "pointer_over"
	TypePointerOut  = "pointer_out"
	TypePointerAt   = "pointer_at"
	TypeKey         = "key"
	TypeCommit      = "commit"
	TypeReset       = "reset"
)

var ErrBadMessage = errors.New("bad message")

// Message：websocket 与 POST /events 共用的 JSON 消息
// 约束：Handle/Cursor/Lat/Lon 用指针区分“缺省”与零值
type Message struct {
	Type    string                            `json:"type"`
	Handle  *region.Handle                    `json:"handle,omitempty"`
	Style   *highlight.Style                  `json:"style,omitempty"`
	Styles  map[region.Handle]highlight.Style `json:"styles,omitempty"`
	Bounds  *region.BBox                      `json:"bounds,omitempty"`
	Region  *highlight.Info                   `json:"region,omitempty"`
	Names   []string                          `json:"names,omitempty"`
	Cursor  *int                              `json:"cursor,omitempty"`
	Text    string                            `json:"text,omitempty"`
	Key     string                            `json:"key,omitempty"`
	Label   string                            `json:"label,omitempty"`
	Name    string                            `json:"name,omitempty"`
	Lat     *float64                          `json:"lat,omitempty"`
	Lon     *float64                          `json:"lon,omitempty"`
	Count   int                               `json:"count,omitempty"`
	Message string                            `json:"message,omitempty"`
}

// Event：入站消息 → 应用事件
func (m Message) Event() (app.Event, error) {
	switch m.Type {
	case TypePointerOver, TypePointerOut:
		if m.Handle == nil {
			return nil, fmt.Errorf("%w: %s requires handle", ErrBadMessage, m.Type)
		}
		if m.Type == TypePointerOver {
			return app.PointerOver{Handle: *m.Handle}, nil
		}
		return app.PointerOut{Handle: *m.Handle}, nil
	case TypePointerAt:
		if m.Lat == nil || m.Lon == nil {
			return nil, fmt.Errorf("%w: pointer_at requires lat and lon", ErrBadMessage)
		}
		return app.PointerAt{Point: region.Point{Lat: *m.Lat, Lon: *m.Lon}}, nil
	case TypeMeasure:
		return app.MeasureChanged{Key: measure.Key(m.Key)}, nil
	case TypeQuery:
		return app.QueryChanged{Text: m.Text}, nil
	case TypeKey:
		return app.KeyPressed{Key: m.Key}, nil
	case TypeCommit:
		return app.SuggestionCommitted{Name: m.Name}, nil
	case TypeReset:
		return app.Reset{}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
}
