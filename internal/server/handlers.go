package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/shape-retrieval/internal/descriptor"
	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
	"github.com/ironsheep/shape-retrieval/internal/retrieval"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shape_describe").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "shape_scale_unit":
		return s.handleScaleUnit(args)
	case "shape_interest_points":
		return s.handleInterestPoints(args)
	case "shape_patches":
		return s.handlePatches(args)
	case "shape_describe":
		return s.handleDescribe(args)
	case "shape_query":
		return s.handleQuery(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// describerFor returns a describer sharing the server's interest point cache
// with the requested minimum distance. Zero selects the default.
func (s *Server) describerFor(minDist float64) *retrieval.Describer {
	d := *s.describer
	if minDist != 0 {
		d.MinDist = minDist
	}
	return &d
}

// === Mask Handlers ===

type scaleUnitArgs struct {
	MaskPath string `json:"mask_path"`
}

// Bounds is a foreground bounding box in pixel coordinates, X2/Y2 exclusive.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// ScaleUnitResult describes the foreground extent of a mask.
type ScaleUnitResult struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Bounds    Bounds  `json:"bounds"`
	Extent    int     `json:"extent"`
	ScaleUnit float64 `json:"scale_unit"`
}

func (s *Server) handleScaleUnit(args json.RawMessage) (interface{}, error) {
	var a scaleUnitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.cache.LoadMask(a.MaskPath)
	if err != nil {
		return nil, err
	}
	extent, err := detection.ForegroundExtent(mask)
	if err != nil {
		return nil, err
	}
	bounds, _ := detection.ForegroundBounds(mask)

	return &ScaleUnitResult{
		Width:  mask.Width,
		Height: mask.Height,
		Bounds: Bounds{
			X1: bounds.Min.X,
			Y1: bounds.Min.Y,
			X2: bounds.Max.X,
			Y2: bounds.Max.Y,
		},
		Extent:    extent,
		ScaleUnit: float64(extent) / detection.ScaleDivisor,
	}, nil
}

type interestPointsArgs struct {
	MaskPath    string  `json:"mask_path"`
	MinDist     float64 `json:"min_dist"`
	Render      bool    `json:"render"`
	MarkerColor string  `json:"marker_color"`
}

// InterestPointsResult lists the interest points of a mask.
type InterestPointsResult struct {
	Count   int                   `json:"count"`
	MinDist float64               `json:"min_dist"`
	Points  []detection.Point     `json:"points"`
	Overlay *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleInterestPoints(args json.RawMessage) (interface{}, error) {
	var a interestPointsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mask, err := s.cache.LoadMask(a.MaskPath)
	if err != nil {
		return nil, err
	}

	d := s.describerFor(a.MinDist)
	points := d.InterestPoints(mask)
	result := &InterestPointsResult{
		Count:   len(points),
		MinDist: d.MinDist,
		Points:  points,
	}

	if a.Render {
		if a.MarkerColor == "" {
			a.MarkerColor = imaging.DefaultMarkerColor
		}
		centres := make([]image.Point, len(points))
		for i, p := range points {
			centres[i] = image.Pt(p.Col, p.Row)
		}
		result.Overlay, err = imaging.EncodePNG(imaging.OverlayMarkers(mask, centres, markerRadius, a.MarkerColor), 1)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// === Patch Handlers ===

const (
	defaultMaxPatches = 50
	markerRadius      = 3
	previewScale      = 4
)

type patchesArgs struct {
	ImagePath  string  `json:"image_path"`
	MaskPath   string  `json:"mask_path"`
	MinDist    float64 `json:"min_dist"`
	Scales     []int   `json:"scales"`
	MaxPatches int     `json:"max_patches"`
	Render     bool    `json:"render"`
}

// PatchInfo describes one extracted patch pair.
type PatchInfo struct {
	Point       detection.Point       `json:"point"`
	Scale       int                   `json:"scale"`
	Window      Bounds                `json:"window"`
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	Foreground  int                   `json:"foreground"`
	Image       *imaging.EncodedImage `json:"image,omitempty"`
	MaskPreview *imaging.EncodedImage `json:"mask,omitempty"`
}

// PatchesResult lists the patch pairs of an image.
type PatchesResult struct {
	ScaleUnit float64     `json:"scale_unit"`
	Scales    []int       `json:"scales"`
	Count     int         `json:"count"`
	Truncated bool        `json:"truncated"`
	Patches   []PatchInfo `json:"patches"`
}

func (s *Server) handlePatches(args json.RawMessage) (interface{}, error) {
	var a patchesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scales == nil {
		a.Scales = s.describer.Computer.Scales
	}
	if a.MaxPatches <= 0 {
		a.MaxPatches = defaultMaxPatches
	}

	img, mask, err := s.cache.LoadPair(a.ImagePath, a.MaskPath)
	if err != nil {
		return nil, err
	}

	d := s.describerFor(a.MinDist)
	patches, err := descriptor.ExtractPatches(img, mask, d.InterestPoints(mask), a.Scales)
	if err != nil {
		return nil, err
	}

	result := &PatchesResult{
		ScaleUnit: patches.Unit(),
		Scales:    a.Scales,
		Patches:   make([]PatchInfo, 0),
	}
	for patches.Next() {
		if len(result.Patches) == a.MaxPatches {
			result.Truncated = true
			break
		}
		pair := patches.Pair()
		info := PatchInfo{
			Point: pair.Point,
			Scale: pair.Scale,
			Window: Bounds{
				X1: pair.Window.Min.X,
				Y1: pair.Window.Min.Y,
				X2: pair.Window.Max.X,
				Y2: pair.Window.Max.Y,
			},
			Width:      pair.Image.Width,
			Height:     pair.Image.Height,
			Foreground: pair.Mask.Count(pair.Mask.Bounds()),
		}
		if a.Render {
			size := d.Computer.PatchSize
			canonical := imaging.Resample(pair.Image, size, size)
			if info.Image, err = imaging.EncodePNG(imaging.ByteScale(canonical), previewScale); err != nil {
				return nil, err
			}
			if info.MaskPreview, err = imaging.EncodePNG(imaging.MaskImage(pair.Mask), previewScale); err != nil {
				return nil, err
			}
		}
		result.Patches = append(result.Patches, info)
	}
	result.Count = len(result.Patches)
	return result, nil
}

// === Descriptor Handlers ===

type describeArgs struct {
	ImagePath      string  `json:"image_path"`
	MaskPath       string  `json:"mask_path"`
	MinDist        float64 `json:"min_dist"`
	IncludeVectors bool    `json:"include_vectors"`
}

// DescribeResult summarises the descriptors of an image.
type DescribeResult struct {
	InterestPoints int                     `json:"interest_points"`
	Count          int                     `json:"count"`
	Dimension      int                     `json:"dimension"`
	Vectors        []descriptor.Descriptor `json:"vectors,omitempty"`
}

func (s *Server) handleDescribe(args json.RawMessage) (interface{}, error) {
	var a describeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, mask, err := s.cache.LoadPair(a.ImagePath, a.MaskPath)
	if err != nil {
		return nil, err
	}

	d := s.describerFor(a.MinDist)
	descs, err := d.Describe(img, mask)
	if err != nil {
		return nil, err
	}

	result := &DescribeResult{
		InterestPoints: len(d.InterestPoints(mask)),
		Count:          len(descs),
		Dimension:      d.Computer.Len(),
	}
	if a.IncludeVectors {
		result.Vectors = descs
	}
	return result, nil
}

// === Retrieval Handlers ===

type queryArgs struct {
	ImagePath      string  `json:"image_path"`
	MaskPath       string  `json:"mask_path"`
	VocabularyPath string  `json:"vocabulary_path"`
	DatabasePath   string  `json:"database_path"`
	MinDist        float64 `json:"min_dist"`
	Limit          int     `json:"limit"`
}

// QueryCandidate is one ranked database entry.
type QueryCandidate struct {
	Rank     int     `json:"rank"`
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// QueryResult lists the ranked candidates for a query image.
type QueryResult struct {
	Words      int              `json:"words"`
	Count      int              `json:"count"`
	Candidates []QueryCandidate `json:"candidates"`
}

func (s *Server) handleQuery(args json.RawMessage) (interface{}, error) {
	var a queryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	vocab, err := s.vocabulary(a.VocabularyPath)
	if err != nil {
		return nil, err
	}
	db, err := s.database(a.DatabasePath)
	if err != nil {
		return nil, err
	}
	img, mask, err := s.cache.LoadPair(a.ImagePath, a.MaskPath)
	if err != nil {
		return nil, err
	}

	enc := &retrieval.Encoder{Describer: s.describerFor(a.MinDist), Vocabulary: vocab}
	query, err := enc.Encode(img, mask)
	if err != nil {
		return nil, err
	}

	candidates, err := db.Query(query, a.Limit)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Words:      vocab.Len(),
		Candidates: make([]QueryCandidate, 0, candidates.Len()),
	}
	for candidates.Next() {
		result.Candidates = append(result.Candidates, QueryCandidate{
			Rank:     len(result.Candidates) + 1,
			Index:    candidates.Index(),
			Name:     db.Names[candidates.Index()],
			Distance: candidates.Distance(),
		})
	}
	result.Count = len(result.Candidates)
	return result, nil
}

func (s *Server) vocabulary(path string) (retrieval.Vocabulary, error) {
	if v, ok := s.vocabularies[path]; ok {
		return v, nil
	}
	v, err := retrieval.LoadVocabulary(path)
	if err != nil {
		return retrieval.Vocabulary{}, err
	}
	s.vocabularies[path] = v
	s.logger.Info().Str("path", path).Int("words", v.Len()).Msg("vocabulary loaded")
	return v, nil
}

func (s *Server) database(path string) (*retrieval.Database, error) {
	if db, ok := s.databases[path]; ok {
		return db, nil
	}
	db, err := retrieval.LoadDatabase(path)
	if err != nil {
		return nil, err
	}
	s.databases[path] = db
	s.logger.Info().Str("path", path).Int("images", db.Len()).Msg("database loaded")
	return db, nil
}
