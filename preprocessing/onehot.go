package preprocessing

import (
	"sort"

	"github.com/YuminosukeSato/bikerental/pkg/errors"
)

// OneHot はカテゴリコードを固定長の0/1ベクトルに展開する
// Vocab は学習時に観測したコードの昇順リスト
type OneHot struct {
	Field string
	Vocab []int
	index map[int]int
}

// FitOneHot はコード列から語彙を構築する
func FitOneHot(field string, codes []int) *OneHot {
	seen := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		seen[c] = struct{}{}
	}
	vocab := make([]int, 0, len(seen))
	for c := range seen {
		vocab = append(vocab, c)
	}
	sort.Ints(vocab)
	return NewOneHot(field, vocab)
}

// NewOneHot は既知の語彙からOneHotを復元する
func NewOneHot(field string, vocab []int) *OneHot {
	o := &OneHot{Field: field, Vocab: append([]int(nil), vocab...), index: make(map[int]int, len(vocab))}
	for i, c := range o.Vocab {
		o.index[c] = i
	}
	return o
}

// Width は展開後の次元数を返す
func (o *OneHot) Width() int {
	return len(o.Vocab)
}

// Contains は code が語彙に含まれるかを返す
func (o *OneHot) Contains(code int) bool {
	_, ok := o.index[code]
	return ok
}

// EncodeInto は dst（長さ Width）にコードを書き込む
// 語彙外のコードでは dst をゼロのままにして UnknownCategoryError を返す
func (o *OneHot) EncodeInto(dst []float64, code int) error {
	for i := range dst {
		dst[i] = 0
	}
	i, ok := o.index[code]
	if !ok {
		return errors.NewUnknownCategoryError(o.Field, code)
	}
	dst[i] = 1
	return nil
}

// Decode は one-hot スライスからコードを復元する
// ちょうど1つの要素が1でない場合は false を返す
func (o *OneHot) Decode(slice []float64) (int, bool) {
	if len(slice) != len(o.Vocab) {
		return 0, false
	}
	hot := -1
	for i, v := range slice {
		switch v {
		case 0:
		case 1:
			if hot >= 0 {
				return 0, false
			}
			hot = i
		default:
			return 0, false
		}
	}
	if hot < 0 {
		return 0, false
	}
	return o.Vocab[hot], true
}
