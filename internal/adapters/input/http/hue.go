package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"

	"hs-as-ct/internal/domain/color"
	"hs-as-ct/internal/domain/model"
	"hs-as-ct/internal/ports"
)

const (
	bridgeUsername = "admin"
	bridgeSerial   = "001788102201"
	bridgeUUID     = "2f402f80-da50-11e1-9b23-001788102201"
)

// Hue API error types
const (
	errUnauthorized         = 1
	errBodyInvalid          = 2
	errResourceNotAvailable = 3
	errInvalidValue         = 7
	errInternal             = 901
)

// Metadata every virtual light is exposed with.
const (
	lightType         = "Color temperature light"
	lightModelID      = "LTW001"
	lightManufacturer = "Philips"
)

// Hue ranges
const (
	minBri = 1
	maxBri = 254
)

var (
	minCt = int(math.Round(color.KelvinToMireds(color.MaxKelvin)))
	maxCt = int(math.Round(color.KelvinToMireds(color.MinKelvin)))
)

type hueErrorBody struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type hueResponse struct {
	Success map[string]interface{} `json:"success,omitempty"`
	Error   *hueErrorBody          `json:"error,omitempty"`
}

func hueError(typ int, address, description string) hueResponse {
	return hueResponse{Error: &hueErrorBody{Type: typ, Address: address, Description: description}}
}

func bridgeConfig(ip string) map[string]interface{} {
	return map[string]interface{}{
		"name":             "Philips hue",
		"swversion":        "01003542",
		"apiversion":       "1.11.0",
		"mac":              "00:17:88:10:22:01",
		"bridgeid":         "001788FFFE102201",
		"modelid":          "BSB001",
		"ipaddress":        ip,
		"factorynew":       false,
		"replacesbridgeid": nil,
	}
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	lights, err := s.hueLights(r)
	if err != nil {
		writeJSON(w, []hueResponse{hueError(errInternal, "/", err.Error())})
		return
	}

	writeJSON(w, map[string]interface{}{
		"lights": lights,
		"groups": map[string]interface{}{},
		"config": bridgeConfig(s.ip),
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.hueLights(r)
	if err != nil {
		writeJSON(w, []hueResponse{hueError(errInternal, "/lights", err.Error())})
		return
	}
	writeJSON(w, lights)
}

func (s *Server) hueLights(r *http.Request) (map[string]*huego.Light, error) {
	lights, err := s.bridge.GetLights(r.Context())
	if err != nil {
		return nil, err
	}

	res := make(map[string]*huego.Light, len(lights))
	for _, l := range lights {
		res[l.ID] = toHueLight(l)
	}
	return res, nil
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request, id string) {
	light, err := s.bridge.GetLight(r.Context(), id)
	if err != nil {
		writeLightError(w, id, err)
		return
	}
	writeJSON(w, toHueLight(light))
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	address := "/lights/" + id + "/state"

	var update map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, []hueResponse{hueError(errBodyInvalid, address, "body contains invalid json")})
		return
	}

	current, err := s.bridge.GetLight(r.Context(), id)
	if err != nil {
		writeLightError(w, id, err)
		return
	}

	change, err := parseStateUpdate(update, current)
	if err != nil {
		writeJSON(w, []hueResponse{hueError(errInvalidValue, address, err.Error())})
		return
	}

	log.Debug().
		Str("light", id).
		Interface("update", update).
		Msg("Hue state update")

	if change.off {
		err = s.bridge.TurnOff(r.Context(), id, change.request)
	} else {
		err = s.bridge.TurnOn(r.Context(), id, change.request)
	}
	if err != nil {
		writeLightError(w, id, err)
		return
	}

	keys := make([]string, 0, len(change.applied))
	for k := range change.applied {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resp := make([]hueResponse, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, hueResponse{Success: map[string]interface{}{
			fmt.Sprintf("%s/%s", address, k): change.applied[k],
		}})
	}
	writeJSON(w, resp)
}

func writeLightError(w http.ResponseWriter, id string, err error) {
	address := "/lights/" + id
	if errors.Is(err, ports.ErrLightNotFound) {
		writeJSON(w, []hueResponse{hueError(errResourceNotAvailable, address, "resource, "+address+", not available")})
		return
	}
	writeJSON(w, []hueResponse{hueError(errInternal, address, err.Error())})
}

func toHueLight(l *model.VirtualLight) *huego.Light {
	a := l.Attributes
	state := &huego.State{
		On:        a.IsOn != nil && *a.IsOn,
		Reachable: a.Available,
		ColorMode: "ct",
		Alert:     "none",
		Effect:    "none",
	}
	if a.Brightness != nil {
		state.Bri = uint8(haToHueBri(*a.Brightness))
	}
	if a.ColorTempKelvin != nil {
		state.Ct = uint16(kelvinToCt(float64(*a.ColorTempKelvin)))
	}
	if a.Effect != nil && *a.Effect == "colorloop" {
		state.Effect = "colorloop"
	}

	uniqueID := l.UniqueID
	if uniqueID == "" {
		uniqueID = l.ObjectID
	}

	return &huego.Light{
		Name:             l.Name,
		Type:             lightType,
		State:            state,
		ModelID:          lightModelID,
		UniqueID:         uniqueID,
		ManufacturerName: lightManufacturer,
	}
}

func haToHueBri(b int) int {
	return clampInt(int(math.Round(float64(b)*maxBri/255)), minBri, maxBri)
}

func hueToHABri(b int) int {
	return clampInt(int(math.Round(float64(b)*255/maxBri)), 1, 255)
}

func kelvinToCt(k float64) int {
	return clampInt(int(math.Round(color.KelvinToMireds(k))), minCt, maxCt)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
