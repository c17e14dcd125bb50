package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aleister1102/clusterlimits/internal/limits"
	"github.com/aleister1102/clusterlimits/internal/orchestrator"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

type clusterOutput struct {
	ID                 string `json:"id" yaml:"id"`
	limits.ClusterView `json:",inline" yaml:",inline"`
}

type limitsOutput struct {
	ContentClusters []clusterOutput `json:"content_clusters" yaml:"content_clusters"`
}

// writeLimits renders the derived limits of every result, or only of clusterID when set.
func writeLimits(w io.Writer, format, clusterID string, results []orchestrator.ClusterResult) error {
	out := limitsOutput{ContentClusters: []clusterOutput{}}
	for _, result := range results {
		if clusterID != "" && result.ID != clusterID {
			continue
		}
		out.ContentClusters = append(out.ContentClusters, clusterOutput{ID: result.ID, ClusterView: result.Limits.View()})
	}
	if clusterID != "" && len(out.ContentClusters) == 0 {
		return fmt.Errorf("content cluster '%s' not found in configuration", clusterID)
	}

	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	default:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(out); err != nil {
			return err
		}
		return encoder.Close()
	}
}
