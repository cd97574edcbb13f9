package app

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/autopeer-io/transitpanel/internal/transit"
)

const karlsplatz = `{"data":{"monitors":[{"locationStop":{"properties":{"title":"Karlsplatz"}},
"lines":[{"name":"U1","towards":"Oberlaa","departures":{"departure":[
{"departureTime":{"countdown":2}},{"departureTime":{}}]}}]}]}}`

type stubFetcher map[transit.StopID]string

func (f stubFetcher) FetchRaw(_ context.Context, id transit.StopID) (transit.RawResponse, error) {
	body, ok := f[id]
	if !ok {
		return transit.RawResponse{}, &transit.FetchError{StopID: id, StatusCode: http.StatusNotFound}
	}
	return transit.RawResponse{StopID: id, Body: []byte(body)}, nil
}

func TestPrintDepartures(t *testing.T) {
	var out bytes.Buffer
	err := printDepartures(context.Background(), &out, stubFetcher{"1444": karlsplatz}, []transit.StopID{"1444", "9999"})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "stop 9999:")
	assert.Contains(t, s, "STOP")
	assert.Contains(t, s, "Karlsplatz")
	assert.Contains(t, s, "Oberlaa")
	assert.Contains(t, s, "2, -")
}

func TestPrintDeparturesAllFailed(t *testing.T) {
	var out bytes.Buffer
	err := printDepartures(context.Background(), &out, stubFetcher{}, []transit.StopID{"1", "2"})

	var ferr *transit.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusNotFound, ferr.StatusCode)
}

func TestPrintConfigRedactsSecrets(t *testing.T) {
	settings := map[string]any{
		"wlan":        map[string]any{"ssid": "home", "password": "hunter2"},
		"mqtt":        map[string]any{"password": ""},
		"station_ids": []string{"1444"},
	}

	var out bytes.Buffer
	require.NoError(t, printConfig(&out, settings))
	assert.NotContains(t, out.String(), "hunter2")

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	wlan := got["wlan"].(map[string]any)
	assert.Equal(t, "home", wlan["ssid"])
	assert.Equal(t, "******", wlan["password"])
	assert.Equal(t, "", got["mqtt"].(map[string]any)["password"])
}

func TestNewAppRegistersCommands(t *testing.T) {
	a := NewApp()
	names := map[string]bool{}
	for _, c := range a.Command().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["departures"])
	assert.True(t, names["config"])
	assert.NotNil(t, a.Command().PersistentFlags().Lookup("station_ids"))
	assert.NotNil(t, a.Command().PersistentFlags().Lookup("config"))
}
