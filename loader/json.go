package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// project.json shapes
// ---------------------------------------------------------------------------

type rawProject struct {
	Targets  []rawTarget  `json:"targets"`
	Monitors []rawMonitor `json:"monitors"`
}

type rawTarget struct {
	IsStage        bool                  `json:"isStage"`
	Name           string                `json:"name"`
	Variables      map[string][]any      `json:"variables"`
	Lists          map[string][]any      `json:"lists"`
	Broadcasts     map[string]string     `json:"broadcasts"`
	Blocks         orderedObject         `json:"blocks"`
	Comments       map[string]rawComment `json:"comments"`
	CurrentCostume int                   `json:"currentCostume"`
	Costumes       []rawCostume          `json:"costumes"`
	Sounds         []rawSound            `json:"sounds"`
	LayerOrder     int                   `json:"layerOrder"`
	Volume         *float64              `json:"volume"`
	Visible        *bool                 `json:"visible"`
	X              float64               `json:"x"`
	Y              float64               `json:"y"`
	Size           *float64              `json:"size"`
	Direction      *float64              `json:"direction"`
	Draggable      bool                  `json:"draggable"`
	RotationStyle  string                `json:"rotationStyle"`
}

type rawComment struct {
	BlockID   *string `json:"blockId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Minimized bool    `json:"minimized"`
	Text      string  `json:"text"`
}

type rawCostume struct {
	AssetID          string  `json:"assetId"`
	Name             string  `json:"name"`
	DataFormat       string  `json:"dataFormat"`
	BitmapResolution int     `json:"bitmapResolution"`
	RotationCenterX  float64 `json:"rotationCenterX"`
	RotationCenterY  float64 `json:"rotationCenterY"`
}

type rawSound struct {
	AssetID     string `json:"assetId"`
	Name        string `json:"name"`
	DataFormat  string `json:"dataFormat"`
	Rate        int    `json:"rate"`
	SampleCount int    `json:"sampleCount"`
}

type rawMonitor struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	Opcode     string            `json:"opcode"`
	Params     map[string]string `json:"params"`
	SpriteName *string           `json:"spriteName"`
	Value      any               `json:"value"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Visible    bool              `json:"visible"`
	SliderMin  float64           `json:"sliderMin"`
	SliderMax  float64           `json:"sliderMax"`
	IsDiscrete bool              `json:"isDiscrete"`
}

type rawBlock struct {
	Opcode   string                       `json:"opcode"`
	Next     *string                      `json:"next"`
	Parent   *string                      `json:"parent"`
	Inputs   map[string][]json.RawMessage `json:"inputs"`
	Fields   map[string][]any             `json:"fields"`
	Shadow   bool                         `json:"shadow"`
	TopLevel bool                         `json:"topLevel"`
	Mutation *rawMutation                 `json:"mutation"`
}

type rawMutation struct {
	ProcCode         string `json:"proccode"`
	ArgumentIDs      string `json:"argumentids"`
	ArgumentNames    string `json:"argumentnames"`
	ArgumentDefaults string `json:"argumentdefaults"`
	Warp             any    `json:"warp"`
}

// ---------------------------------------------------------------------------
// Ordered objects
// ---------------------------------------------------------------------------

type member struct {
	Key   string
	Value json.RawMessage
}

// orderedObject is a JSON object decoded with its key order intact, so
// scripts register in the order the editor saved them.
type orderedObject []member

func (o *orderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	var out orderedObject
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("member %s: %w", key, err)
		}
		out = append(out, member{Key: key, Value: raw})
	}
	*o = out
	return nil
}
