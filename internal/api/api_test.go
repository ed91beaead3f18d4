package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"choromap/internal/app"
	"choromap/internal/highlight"
	"choromap/internal/measure"
	"choromap/internal/region"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(lon, lat float64) []region.Polygon {
	return []region.Polygon{region.NewPolygon(region.Ring{
		{Lon: lon, Lat: lat}, {Lon: lon + 1, Lat: lat}, {Lon: lon + 1, Lat: lat + 1}, {Lon: lon, Lat: lat + 1}, {Lon: lon, Lat: lat},
	})}
}

var features = []region.Feature{
	{ID: "DE2", Name: "Bavaria", Polygons: box(10, 48)},
	{ID: "DED", Name: "Saxony", Polygons: box(12, 51)},
}

type fixture struct {
	app  *app.App
	loop *app.Loop
	hub  *Hub
	srv  *httptest.Server
}

func newFixture(t *testing.T, load bool) *fixture {
	t.Helper()
	loop := app.NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	hub := NewHub()
	hub.SetInitialMeasure(measure.ForgottenVoters)
	a := app.New(loop, hub, app.Options{DefaultMeasure: measure.ForgottenVoters})
	if load {
		a.Dispatch(app.RegionsLoaded{Features: features})
		a.Dispatch(app.MeasuresLoaded{Rows: []measure.Row{{measure.IDColumn: "DE2", "forgottenVoters": "45.2"}}})
		require.NoError(t, loop.Do(context.Background(), func() {}))
	}
	s := NewServer(a, hub, "", "")
	srv := httptest.NewServer(http.StripPrefix("/api", s.BuildRoutes()))
	t.Cleanup(srv.Close)
	return &fixture{app: a, loop: loop, hub: hub, srv: srv}
}

func TestMessageEvent(t *testing.T) {
	h := region.Handle(0)
	lat, lon := 48.1, 11.5
	cases := []struct {
		in   Message
		want app.Event
	}{
		{Message{Type: TypePointerOver, Handle: &h}, app.PointerOver{Handle: 0}},
		{Message{Type: TypePointerOut, Handle: &h}, app.PointerOut{Handle: 0}},
		{Message{Type: TypePointerAt, Lat: &lat, Lon: &lon}, app.PointerAt{Point: region.Point{Lat: lat, Lon: lon}}},
		{Message{Type: TypeMeasure, Key: "lowTrust"}, app.MeasureChanged{Key: measure.LowTrust}},
		{Message{Type: TypeQuery, Text: "sax"}, app.QueryChanged{Text: "sax"}},
		{Message{Type: TypeKey, Key: "Enter"}, app.KeyPressed{Key: "Enter"}},
		{Message{Type: TypeCommit, Name: "Saxony"}, app.SuggestionCommitted{Name: "Saxony"}},
		{Message{Type: TypeReset}, app.Reset{}},
	}
	for _, c := range cases {
		ev, err := c.in.Event()
		require.NoError(t, err, c.in.Type)
		assert.Equal(t, c.want, ev)
	}
	for _, bad := range []Message{{Type: TypePointerOver}, {Type: TypePointerAt, Lat: &lat}, {Type: "teleport"}} {
		_, err := bad.Event()
		assert.ErrorIs(t, err, ErrBadMessage)
	}
}

func TestHubSyncAndSlowClient(t *testing.T) {
	hub := NewHub()
	hub.SetInitialMeasure(measure.LowTrust)
	hub.SetStyle(1, highlight.StyleFor(highlight.Normal, "#fee5d9"))
	hub.ShowSuggestions([]string{"Saxony"}, 0)
	hub.Notice("down")

	c := &client{id: "t", send: make(chan Message, sendQueue)}
	hub.register(c)
	var got []Message
	for len(c.send) > 0 {
		got = append(got, <-c.send)
	}
	require.Len(t, got, 4)
	assert.Equal(t, TypeMeasure, got[0].Type)
	assert.Equal(t, "lowTrust", got[0].Key)
	assert.Equal(t, TypeSync, got[1].Type)
	assert.Len(t, got[1].Styles, 1)
	assert.Equal(t, TypeSuggestions, got[2].Type)
	assert.Equal(t, 0, *got[2].Cursor)
	assert.Equal(t, TypeNotice, got[3].Type)

	for i := 0; i < sendQueue; i++ {
		hub.BringToFront(0)
	}
	assert.Equal(t, 1, hub.Clients())
	hub.BringToFront(0)
	assert.Equal(t, 0, hub.Clients(), "队列满的客户端被断开")
	for range c.send {
	}
	_, open := <-c.send
	assert.False(t, open, "发送队列已关闭")
}

func TestRESTRoutes(t *testing.T) {
	f := newFixture(t, true)

	res, err := http.Get(f.srv.URL + "/api/measures")
	require.NoError(t, err)
	var ms struct {
		Keys   []measureInfo `json:"keys"`
		Active string        `json:"active"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&ms))
	res.Body.Close()
	assert.Len(t, ms.Keys, 3)
	assert.Equal(t, "forgottenVoters", ms.Active)

	res, err = http.Get(f.srv.URL + "/api/regions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var fc struct {
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&fc))
	res.Body.Close()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, 1.0, fc.Features[1].Properties["handle"])
	assert.Equal(t, "Saxony", fc.Features[1].Properties["NUTS_NAME"])

	res, err = http.Post(f.srv.URL+"/api/events", "application/json", strings.NewReader(`{"type":"measure","key":"pessimism"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	res, err = http.Post(f.srv.URL+"/api/events", "application/json", strings.NewReader(`{"type":"pointer_over"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Get(f.srv.URL + "/api/state")
	require.NoError(t, err)
	var snap app.Snapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	res.Body.Close()
	assert.Equal(t, measure.Pessimism, snap.Measure)
	assert.Equal(t, 2, snap.Regions)
}

func TestRegionsPending(t *testing.T) {
	f := newFixture(t, false)
	res, err := http.Get(f.srv.URL + "/api/regions")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func readUntil(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m Message
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == typ {
			return m
		}
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	f := newFixture(t, true)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	sync := readUntil(t, conn, TypeSync)
	assert.Len(t, sync.Styles, 2)
	assert.Equal(t, 2, sync.Count)

	require.NoError(t, conn.WriteJSON(Message{Type: TypeCommit, Name: "Saxony"}))
	fit := readUntil(t, conn, TypeFit)
	assert.Equal(t, region.BBox{MinLon: 12, MinLat: 51, MaxLon: 13, MaxLat: 52}, *fit.Bounds)
	st := readUntil(t, conn, TypeStyle)
	require.NotNil(t, st.Handle)
	assert.Equal(t, region.Handle(1), *st.Handle)
	assert.Equal(t, 3.0, st.Style.Weight)
	info := readUntil(t, conn, TypeInfo)
	assert.Equal(t, "Saxony", info.Region.Name)

	require.NoError(t, conn.WriteJSON(Message{Type: "teleport"}))
	e := readUntil(t, conn, TypeError)
	assert.Contains(t, e.Message, "unknown type")
}
