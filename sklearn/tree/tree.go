// Package tree は勾配ブースティング系の学習器が共有する回帰木の成長器を提供する
//
// 木は勾配とヘシアンの和から分割ゲインと葉の値を求める二次近似で成長する。
// 成長順序は2種類あり、ゲイン最大の葉から分割する LeafWise（best-first）と、
// 深さごとに左から順に分割する DepthWise（level-order）を選べる。
// どちらも NumLeaves に達するか、正のゲインを持つ分割がなくなった時点で止まる。
//
// ノードはポインタを持たないフラットな配列で保持されるため、gob でそのまま永続化できる。
package tree

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/bikerental/core/parallel"
	bkerrors "github.com/YuminosukeSato/bikerental/pkg/errors"
)

// Growth は木の成長順序
type Growth int

const (
	// LeafWise はゲイン最大の葉から分割する
	LeafWise Growth = iota
	// DepthWise は浅い葉から左から順に分割する
	DepthWise
)

// String returns the growth policy name.
func (g Growth) String() string {
	switch g {
	case LeafWise:
		return "leaf-wise"
	case DepthWise:
		return "depth-wise"
	default:
		return "unknown"
	}
}

// Node は木の1ノード。Left == -1 のとき葉
type Node struct {
	Feature   int
	Threshold float64 // x[Feature] <= Threshold なら左
	Left      int
	Right     int
	Value     float64 // 葉の値（縮小率適用前）
	Count     int
	Gain      float64
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.Left == -1
}

// Tree は1本の回帰木
type Tree struct {
	Nodes     []Node
	Shrinkage float64
	NumLeaves int
	Depth     int
}

// Predict は縮小率を掛けた葉の値を返す
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for !t.Nodes[i].IsLeaf() {
		n := &t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value * t.Shrinkage
}

// Validate は Predict が安全に辿れる木かを検査する
//
// 内部ノードは [0, numFeatures) の特徴量を参照し、子の添字は配列内かつ
// 親より大きくなければならない（Grow は子を常に末尾に追加するので循環しない）。
// 葉の値、閾値、縮小率は有限であること。
func (t *Tree) Validate(numFeatures int) error {
	if !isFinite(t.Shrinkage) {
		return bkerrors.NewValidationError("tree.shrinkage", "must be finite", t.Shrinkage)
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			if !isFinite(n.Value) {
				return bkerrors.NewValidationError(fmt.Sprintf("tree.nodes[%d].value", i), "must be finite", n.Value)
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return bkerrors.NewValidationError(fmt.Sprintf("tree.nodes[%d].feature", i),
				fmt.Sprintf("must be in [0, %d)", numFeatures), n.Feature)
		}
		if !isFinite(n.Threshold) {
			return bkerrors.NewValidationError(fmt.Sprintf("tree.nodes[%d].threshold", i), "must be finite", n.Threshold)
		}
		for _, child := range [2]int{n.Left, n.Right} {
			if child <= i || child >= len(t.Nodes) {
				return bkerrors.NewValidationError(fmt.Sprintf("tree.nodes[%d].child", i),
					fmt.Sprintf("must be in (%d, %d)", i, len(t.Nodes)), child)
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Params は成長器のハイパーパラメータ
type Params struct {
	NumLeaves      int     // 葉の最大数
	MaxDepth       int     // 0 以下で無制限
	MinDataInLeaf  int     // 葉あたりの最小サンプル数
	Lambda         float64 // L2 正則化
	MinGainToSplit float64
	MaxBin         int
	Growth         Growth
	Workers        int // 特徴量方向の並列数。1 で逐次
}

// DefaultParams returns parameters matching the boosted-tree defaults.
func DefaultParams() Params {
	return Params{
		NumLeaves:     50,
		MinDataInLeaf: 20,
		Lambda:        1.0,
		MaxBin:        255,
		Growth:        LeafWise,
		Workers:       1,
	}
}

// SplitInfo contains information about a potential split
type SplitInfo struct {
	Feature    int
	Bin        int
	Threshold  float64
	Gain       float64
	LeftCount  int
	RightCount int
	LeftGrad   float64
	RightGrad  float64
	LeftHess   float64
	RightHess  float64
}

func (s SplitInfo) valid() bool {
	return s.Feature >= 0 && s.LeftCount > 0 && s.RightCount > 0
}

// Grower は1つの計画行列に対して何本でも木を成長させる
//
// 特徴量の量子化（ビン境界とサンプルごとのビン番号）は生成時に一度だけ計算する。
// Grow は内部状態を変更しないので、同じ Grower を順に何度呼んでもよい。
type Grower struct {
	params     Params
	rows       int
	cols       int
	thresholds [][]float64 // 特徴量ごとの分割候補。bin k と k+1 の境界
	bins       [][]uint16  // bins[feature][row]
}

// NewGrower は X を量子化して Grower を作る。X は変更しない
func NewGrower(X mat.Matrix, params Params) *Grower {
	rows, cols := X.Dims()
	if params.MaxBin <= 1 || params.MaxBin > math.MaxUint16 {
		params.MaxBin = 255
	}
	if params.MinDataInLeaf < 1 {
		params.MinDataInLeaf = 1
	}
	if params.NumLeaves < 2 {
		params.NumLeaves = 2
	}
	if params.Workers < 1 {
		params.Workers = 1
	}

	g := &Grower{
		params:     params,
		rows:       rows,
		cols:       cols,
		thresholds: make([][]float64, cols),
		bins:       make([][]uint16, cols),
	}
	values := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			values[i] = X.At(i, j)
		}
		g.thresholds[j] = findBinBoundaries(values, params.MaxBin)
		b := make([]uint16, rows)
		for i := 0; i < rows; i++ {
			b[i] = uint16(sort.SearchFloat64s(g.thresholds[j], values[i]))
		}
		g.bins[j] = b
	}
	return g
}

// Params returns the effective parameters after defaults were applied.
func (g *Grower) Params() Params {
	return g.params
}

// findBinBoundaries は分割候補の閾値を昇順で返す
// ユニーク値が maxBin 以下なら隣接値の中点、それ以上なら等頻度で区切る
func findBinBoundaries(values []float64, maxBin int) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	unique := []float64{sorted[0]}
	counts := []int{1}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			unique = append(unique, sorted[i])
			counts = append(counts, 1)
		} else {
			counts[len(counts)-1]++
		}
	}

	if len(unique) <= maxBin {
		bounds := make([]float64, 0, len(unique)-1)
		for i := 0; i+1 < len(unique); i++ {
			bounds = append(bounds, (unique[i]+unique[i+1])/2)
		}
		return bounds
	}

	perBin := float64(len(values)) / float64(maxBin)
	bounds := make([]float64, 0, maxBin-1)
	acc := 0
	for i := 0; i+1 < len(unique); i++ {
		acc += counts[i]
		if float64(acc) >= perBin*float64(len(bounds)+1) {
			bounds = append(bounds, (unique[i]+unique[i+1])/2)
			if len(bounds) == maxBin-1 {
				break
			}
		}
	}
	return bounds
}

// leaf is a growing leaf together with its best pending split.
type leaf struct {
	node    int
	depth   int
	indices []int
	grad    float64
	hess    float64
	split   SplitInfo
}

// Grow は indices の行だけを使って1本の木を成長させる
//
// grad と hess は全行分の長さを持ち、indices に含まれない行は参照しない。
// shrinkage は Tree.Predict で葉の値に掛けられる。
func (g *Grower) Grow(indices []int, grad, hess []float64, shrinkage float64) Tree {
	t := Tree{Shrinkage: shrinkage}

	rootIdx := make([]int, len(indices))
	copy(rootIdx, indices)
	root := g.newLeaf(&t, rootIdx, 0, grad, hess)

	pending := []*leaf{root}
	numLeaves := 1
	for numLeaves < g.params.NumLeaves && len(pending) > 0 {
		var pick int
		switch g.params.Growth {
		case DepthWise:
			pick = 0
		default:
			pick = bestPending(pending)
		}
		l := pending[pick]
		pending = append(pending[:pick], pending[pick+1:]...)

		if !g.splittable(l) {
			continue
		}
		left, right := g.apply(&t, l, grad, hess)
		numLeaves++
		pending = append(pending, left, right)
	}

	t.NumLeaves = numLeaves
	return t
}

// bestPending returns the index of the pending leaf with the largest gain.
// Ties go to the leaf created first.
func bestPending(pending []*leaf) int {
	best := 0
	for i := 1; i < len(pending); i++ {
		if pending[i].split.Gain > pending[best].split.Gain {
			best = i
		}
	}
	return best
}

func (g *Grower) splittable(l *leaf) bool {
	if !l.split.valid() {
		return false
	}
	if g.params.MaxDepth > 0 && l.depth >= g.params.MaxDepth {
		return false
	}
	return l.split.Gain > g.params.MinGainToSplit && l.split.Gain > 0
}

func (g *Grower) newLeaf(t *Tree, indices []int, depth int, grad, hess []float64) *leaf {
	var sg, sh float64
	for _, i := range indices {
		sg += grad[i]
		sh += hess[i]
	}
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Feature: -1,
		Left:    -1,
		Right:   -1,
		Value:   g.leafValue(sg, sh),
		Count:   len(indices),
	})
	if depth > t.Depth {
		t.Depth = depth
	}
	l := &leaf{node: id, depth: depth, indices: indices, grad: sg, hess: sh}
	l.split = g.findBestSplit(l, grad, hess)
	return l
}

// apply turns l into an internal node and returns its two children.
func (g *Grower) apply(t *Tree, l *leaf, grad, hess []float64) (*leaf, *leaf) {
	s := l.split
	bins := g.bins[s.Feature]
	leftIdx := make([]int, 0, s.LeftCount)
	rightIdx := make([]int, 0, s.RightCount)
	for _, i := range l.indices {
		if int(bins[i]) <= s.Bin {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	n := &t.Nodes[l.node]
	n.Feature = s.Feature
	n.Threshold = s.Threshold
	n.Gain = s.Gain

	left := g.newLeaf(t, leftIdx, l.depth+1, grad, hess)
	right := g.newLeaf(t, rightIdx, l.depth+1, grad, hess)
	// newLeaf may have grown t.Nodes, so look the parent up again.
	t.Nodes[l.node].Left = left.node
	t.Nodes[l.node].Right = right.node
	return left, right
}

// findBestSplit searches every feature. With Workers > 1 the features are
// scanned in parallel and reduced in feature order, so the result does not
// depend on scheduling.
func (g *Grower) findBestSplit(l *leaf, grad, hess []float64) SplitInfo {
	best := SplitInfo{Feature: -1, Gain: math.Inf(-1)}
	if len(l.indices) < 2*g.params.MinDataInLeaf {
		return best
	}

	perFeature := make([]SplitInfo, g.cols)
	parallel.ParallelizeWithWorkers(g.cols, g.params.Workers, func(start, end int) {
		for j := start; j < end; j++ {
			perFeature[j] = g.findBestSplitForFeature(l, j, grad, hess)
		}
	})

	for _, s := range perFeature {
		if s.valid() && s.Gain > best.Gain {
			best = s
		}
	}
	return best
}

func (g *Grower) findBestSplitForFeature(l *leaf, feature int, grad, hess []float64) SplitInfo {
	best := SplitInfo{Feature: -1, Gain: math.Inf(-1)}
	thr := g.thresholds[feature]
	if len(thr) == 0 {
		return best
	}

	numBins := len(thr) + 1
	hg := make([]float64, numBins)
	hh := make([]float64, numBins)
	hc := make([]int, numBins)
	bins := g.bins[feature]
	for _, i := range l.indices {
		b := bins[i]
		hg[b] += grad[i]
		hh[b] += hess[i]
		hc[b]++
	}

	var lg, lh float64
	var lc int
	total := len(l.indices)
	for b := 0; b < numBins-1; b++ {
		lg += hg[b]
		lh += hh[b]
		lc += hc[b]
		if hc[b] == 0 {
			continue
		}
		rc := total - lc
		if lc < g.params.MinDataInLeaf || rc < g.params.MinDataInLeaf {
			continue
		}
		rg := l.grad - lg
		rh := l.hess - lh
		gain := g.splitGain(lg, lh, rg, rh, l.grad, l.hess)
		if gain > best.Gain {
			best = SplitInfo{
				Feature:    feature,
				Bin:        b,
				Threshold:  thr[b],
				Gain:       gain,
				LeftCount:  lc,
				RightCount: rc,
				LeftGrad:   lg,
				RightGrad:  rg,
				LeftHess:   lh,
				RightHess:  rh,
			}
		}
	}
	return best
}

// splitGain calculates the gain from a split
func (g *Grower) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := g.params.Lambda
	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}

// leafValue は L2 正則化付きの最適な葉の値 -G/(H+λ)
func (g *Grower) leafValue(sumGrad, sumHess float64) float64 {
	const epsilon = 1e-10
	return -sumGrad / (sumHess + g.params.Lambda + epsilon)
}

// Ensemble は加法的な木の集まり。生スコアは InitScore と各木の出力の和
type Ensemble struct {
	Trees     []Tree
	InitScore float64
}

// Raw returns the additive score of x.
func (e *Ensemble) Raw(x []float64) float64 {
	s := e.InitScore
	for i := range e.Trees {
		s += e.Trees[i].Predict(x)
	}
	return s
}

// Validate checks InitScore and every tree against numFeatures.
func (e *Ensemble) Validate(numFeatures int) error {
	if !isFinite(e.InitScore) {
		return bkerrors.NewValidationError("init_score", "must be finite", e.InitScore)
	}
	for i := range e.Trees {
		if err := e.Trees[i].Validate(numFeatures); err != nil {
			return bkerrors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

// Add appends t and adds its output on every row of X to scores.
// scores must have one entry per row of X.
func (e *Ensemble) Add(t Tree, X mat.RawMatrixer, scores []float64) {
	e.Trees = append(e.Trees, t)
	raw := X.RawMatrix()
	for i := range scores {
		scores[i] += t.Predict(raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols])
	}
}

// FeatureImportance は特徴量ごとの分割回数（"split"）または合計ゲイン（"gain"）を返す
func (e *Ensemble) FeatureImportance(numFeatures int, importanceType string) []float64 {
	imp := make([]float64, numFeatures)
	for i := range e.Trees {
		for _, n := range e.Trees[i].Nodes {
			if n.IsLeaf() || n.Feature >= numFeatures {
				continue
			}
			if importanceType == "gain" {
				imp[n.Feature] += n.Gain
			} else {
				imp[n.Feature]++
			}
		}
	}
	return imp
}
