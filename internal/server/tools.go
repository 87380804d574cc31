package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var minDistProperty = map[string]interface{}{
	"type":        "number",
	"description": "Minimum distance in pixels between interest points. Default 40",
	"default":     40.0,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "shape_scale_unit",
			Description: "Compute the foreground bounding box of a segmentation mask, its extent (smaller side) and the derived patch scale unit (extent / 20).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask_path": pathProperty("Absolute path to the mask image (white = foreground)"),
				},
				"required": []string{"mask_path"},
			},
		},
		{
			Name:        "shape_interest_points",
			Description: "Detect spatially spread interest points along the boundary of a segmentation mask. Points are returned in row-major acceptance order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask_path": pathProperty("Absolute path to the mask image (white = foreground)"),
					"min_dist":  minDistProperty,
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a PNG of the mask with the points marked. Default false",
						"default":     false,
					},
					"marker_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex colour of the point markers. Default #ff0000",
						"default":     "#ff0000",
					},
				},
				"required": []string{"mask_path"},
			},
		},
		{
			Name:        "shape_patches",
			Description: "List the image/mask patch pairs extracted around each interest point, scale by scale, after invalid pairs are filtered. Optionally renders the resampled patch and its mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": pathProperty("Absolute path to the image file"),
					"mask_path":  pathProperty("Absolute path to the mask image (white = foreground)"),
					"min_dist":   minDistProperty,
					"scales": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Patch half-widths in scale units. Default [1, 4, 16]",
					},
					"max_patches": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of patches returned. Default 50",
						"default":     50,
					},
					"render": map[string]interface{}{
						"type":        "boolean",
						"description": "Include PNG previews of each patch. Default false",
						"default":     false,
					},
				},
				"required": []string{"image_path", "mask_path"},
			},
		},
		{
			Name:        "shape_describe",
			Description: "Compute boundary descriptors (gradient histogram + occupancy grid) for an image and its mask. Returns descriptor count and dimension, and optionally the vectors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": pathProperty("Absolute path to the image file"),
					"mask_path":  pathProperty("Absolute path to the mask image (white = foreground)"),
					"min_dist":   minDistProperty,
					"include_vectors": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the descriptor vectors in the result. Default false",
						"default":     false,
					},
				},
				"required": []string{"image_path", "mask_path"},
			},
		},
		{
			Name:        "shape_query",
			Description: "Rank a histogram database against an image/mask query using a visual vocabulary. Returns database entries ordered by ascending histogram distance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path":      pathProperty("Absolute path to the query image"),
					"mask_path":       pathProperty("Absolute path to the query mask"),
					"vocabulary_path": pathProperty("Path to a vocabulary written by the build command"),
					"database_path":   pathProperty("Path to a histogram database written by the build command"),
					"min_dist":        minDistProperty,
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of candidates. Default 200",
						"default":     200,
					},
				},
				"required": []string{"image_path", "mask_path", "vocabulary_path", "database_path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
