// Package loader reads Scratch 3 projects (.sb3 archives, unpacked project
// directories, or bare project.json files) into a vm.Project.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/tliron/commonlog"

	"github.com/chazu/scratchvm/settings"
	"github.com/chazu/scratchvm/vm"
)

var log = commonlog.GetLogger("scratchvm.loader")

// ProjectFile is the name of the project description inside an archive.
const ProjectFile = "project.json"

var (
	// ErrNoProject is returned when an archive or directory has no project.json.
	ErrNoProject = errors.New("no project.json found")
	// ErrNoStage is returned when a project has no stage target.
	ErrNoStage = errors.New("project has no stage")
)

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// LoadFile loads a project from path, which may be an .sb3 archive, a
// directory holding project.json, or a project.json file.
func LoadFile(path string) (*vm.Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open project: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, ProjectFile)
	} else if strings.EqualFold(filepath.Ext(path), ".sb3") {
		return LoadSB3(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoProject)
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadSB3 loads a zipped project archive.
func LoadSB3(path string) (*vm.Project, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer zr.Close()
	return fromArchive(&zr.Reader, path)
}

// ReadSB3 loads a zipped project archive held in memory.
func ReadSB3(data []byte) (*vm.Project, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid project archive: %w", err)
	}
	return fromArchive(zr, "archive")
}

func fromArchive(zr *zip.Reader, name string) (*vm.Project, error) {
	for _, f := range zr.File {
		if f.Name != ProjectFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot read %s: %w", name, ProjectFile, err)
		}
		log.Debugf("%s: %d assets", name, len(zr.File)-1)
		return Parse(data)
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNoProject)
}

// Parse decodes a project.json document.
func Parse(data []byte) (*vm.Project, error) {
	var raw rawProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid project.json: %w", err)
	}

	p := &vm.Project{Graph: vm.NewGraph(), Source: data}
	type ordered struct {
		sprite *vm.Sprite
		layer  int
	}
	var targets []ordered
	var stage *vm.Sprite
	for i := range raw.Targets {
		rt := &raw.Targets[i]
		s, err := buildTarget(p.Graph, rt)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", rt.Name, err)
		}
		if s.IsStage && stage == nil {
			stage = s
		}
		targets = append(targets, ordered{s, rt.LayerOrder})
	}
	if stage == nil {
		return nil, ErrNoStage
	}
	slices.SortStableFunc(targets, func(a, b ordered) int {
		if a.sprite.IsStage != b.sprite.IsStage {
			if a.sprite.IsStage {
				return -1
			}
			return 1
		}
		return a.layer - b.layer
	})
	for _, t := range targets {
		p.Sprites = append(p.Sprites, t.sprite)
	}

	for _, m := range raw.Monitors {
		p.Monitors = append(p.Monitors, buildMonitor(m))
	}

	p.Settings = settings.FromComments(stage.Comments)
	log.Infof("loaded %d targets, %d blocks, %d monitors", len(p.Sprites), p.Graph.Len(), len(p.Monitors))
	return p, nil
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

func buildTarget(g *vm.Graph, rt *rawTarget) (*vm.Sprite, error) {
	s := vm.NewSprite(uuid.NewString(), rt.Name)
	s.IsStage = rt.IsStage
	s.X, s.Y = rt.X, rt.Y
	if rt.Direction != nil {
		s.Direction = *rt.Direction
	}
	if rt.Size != nil {
		s.Size = *rt.Size
	}
	if rt.Visible != nil {
		s.Visible = *rt.Visible
	}
	if rt.Volume != nil {
		s.Volume = *rt.Volume
	}
	s.Draggable = rt.Draggable
	if rt.RotationStyle != "" {
		s.RotationStyle = vm.ParseRotationStyle(rt.RotationStyle)
	}
	s.Layer = rt.LayerOrder

	for id, raw := range rt.Variables {
		v := &vm.Variable{ID: id}
		if len(raw) > 0 {
			v.Name, _ = raw[0].(string)
		}
		if len(raw) > 1 {
			v.Value = vm.ParseLiteral(raw[1])
		}
		if len(raw) > 2 {
			v.Cloud, _ = raw[2].(bool)
		}
		s.Variables[id] = v
	}
	for id, raw := range rt.Lists {
		l := &vm.List{ID: id}
		if len(raw) > 0 {
			l.Name, _ = raw[0].(string)
		}
		if len(raw) > 1 {
			items, _ := raw[1].([]any)
			for _, it := range items {
				l.Items = append(l.Items, vm.ParseLiteral(it))
			}
		}
		s.Lists[id] = l
	}
	for id, name := range rt.Broadcasts {
		s.Broadcasts[id] = name
	}
	for id, c := range rt.Comments {
		cm := vm.Comment{
			ID: id, Text: c.Text, X: c.X, Y: c.Y,
			Width: c.Width, Height: c.Height, Minimized: c.Minimized,
		}
		if c.BlockID != nil {
			cm.BlockID = *c.BlockID
		}
		s.Comments[id] = cm
	}
	for _, c := range rt.Costumes {
		s.Costumes = append(s.Costumes, buildCostume(c))
	}
	for _, snd := range rt.Sounds {
		s.Sounds = append(s.Sounds, vm.Sound{
			ID: snd.AssetID, Name: snd.Name, DataFormat: snd.DataFormat,
			Rate: snd.Rate, SampleCount: snd.SampleCount,
		})
	}
	s.CurrentCostume = rt.CurrentCostume
	if len(s.Costumes) > 0 {
		s.SetCostume(rt.CurrentCostume)
	}

	for _, m := range rt.Blocks {
		b, ok, err := decodeBlock(m.Key, m.Value)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ref := g.Add(b)
		if b.TopLevel {
			s.Scripts = append(s.Scripts, ref)
		}
	}
	return s, nil
}

// buildCostume estimates the costume's size from its rotation center,
// since asset dimensions are not decoded here.
func buildCostume(c rawCostume) vm.Costume {
	res := c.BitmapResolution
	if res <= 0 {
		res = 1
	}
	return vm.Costume{
		ID:               c.AssetID,
		Name:             c.Name,
		DataFormat:       c.DataFormat,
		BitmapResolution: res,
		RotationCenterX:  c.RotationCenterX,
		RotationCenterY:  c.RotationCenterY,
		Width:            2 * c.RotationCenterX / float64(res),
		Height:           2 * c.RotationCenterY / float64(res),
	}
}

// ---------------------------------------------------------------------------
// Monitors
// ---------------------------------------------------------------------------

func buildMonitor(m rawMonitor) *vm.Monitor {
	mon := &vm.Monitor{
		ID:         m.ID,
		Mode:       m.Mode,
		Opcode:     m.Opcode,
		Params:     m.Params,
		X:          m.X,
		Y:          m.Y,
		Width:      m.Width,
		Height:     m.Height,
		Visible:    m.Visible,
		IsDiscrete: m.IsDiscrete,
		SliderMin:  m.SliderMin,
		SliderMax:  m.SliderMax,
	}
	if mon.Params == nil {
		mon.Params = make(map[string]string)
	}
	if m.SpriteName != nil {
		mon.SpriteName = *m.SpriteName
	}
	if items, ok := m.Value.([]any); ok {
		for _, it := range items {
			mon.Items = append(mon.Items, vm.ParseLiteral(it))
		}
	} else {
		mon.Value = vm.ParseLiteral(m.Value)
	}
	return mon
}
