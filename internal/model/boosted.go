package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GradientBoosting is an ensemble of regression trees whose summed margins
// pass through a sigmoid. Trees are stored as flat node arrays; child fields
// index into the same array.
type GradientBoosting struct {
	trees        [][]treeNode
	baseScore    float64
	learningRate float64
	numFeatures  int
}

type treeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

type gradientBoostingArtifact struct {
	NumFeatures  int          `json:"num_features"`
	BaseScore    float64      `json:"base_score"`
	LearningRate float64      `json:"learning_rate"`
	Trees        [][]treeNode `json:"trees"`
}

func loadGradientBoosting(raw []byte) (*GradientBoosting, error) {
	var a gradientBoostingArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("parse gradient boosting artifact: %w", err)
	}
	if a.NumFeatures <= 0 {
		return nil, errors.New("gradient boosting artifact declares no features")
	}
	if len(a.Trees) == 0 {
		return nil, errors.New("gradient boosting artifact declares no trees")
	}
	if a.LearningRate == 0 {
		a.LearningRate = 1
	}
	for ti, tree := range a.Trees {
		if err := validateTree(tree, a.NumFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return &GradientBoosting{
		trees:        a.Trees,
		baseScore:    a.BaseScore,
		learningRate: a.LearningRate,
		numFeatures:  a.NumFeatures,
	}, nil
}

// validateTree rejects structurally broken trees at load time so traversal
// never panics on a request path.
func validateTree(tree []treeNode, numFeatures int) error {
	if len(tree) == 0 {
		return errors.New("empty node array")
	}
	for i, n := range tree {
		if n.IsLeaf {
			continue
		}
		if n.FeatureIdx < 0 || n.FeatureIdx >= numFeatures {
			return fmt.Errorf("node %d references feature %d outside [0,%d)", i, n.FeatureIdx, numFeatures)
		}
		if n.LeftChild <= i || n.LeftChild >= len(tree) {
			return fmt.Errorf("node %d has invalid left child %d", i, n.LeftChild)
		}
		if n.RightChild <= i || n.RightChild >= len(tree) {
			return fmt.Errorf("node %d has invalid right child %d", i, n.RightChild)
		}
	}
	return nil
}

// NumFeatures returns the expected feature vector length.
func (g *GradientBoosting) NumFeatures() int {
	return g.numFeatures
}

// PredictProba sums the tree margins and squashes through a sigmoid.
func (g *GradientBoosting) PredictProba(features []float64) (float64, error) {
	if len(features) != g.numFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", g.numFeatures, len(features))
	}
	margin := g.baseScore
	for _, tree := range g.trees {
		leaf, err := traverse(tree, features)
		if err != nil {
			return 0, err
		}
		margin += g.learningRate * leaf
	}
	return clampProbability(sigmoid(margin)), nil
}

func traverse(tree []treeNode, features []float64) (float64, error) {
	idx := 0
	for range tree {
		node := tree[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	// Child indices strictly increase, so a walk longer than the node count
	// means the artifact slipped past validation.
	return 0, errors.New("tree traversal did not reach a leaf")
}
