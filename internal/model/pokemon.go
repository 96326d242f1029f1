package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// PokemonDoc はカタログの1レコードを表すスキーマレスなドキュメント。
// idフィールドのみ必須で、それ以外のフィールドは任意。
// idの一意性はストアでは保証されず、検索時は最初の一致を採用する。
type PokemonDoc map[string]any

// ID はドキュメントのidフィールドを整数として返す。
// JSONデコード経由の数値（float64）とint両方を受け付ける。
// 非整数の数値はエラーになる。idは整数としてストアに索引されるため、
// 切り捨てて通すとここでの検査を素通りして挿入時に失敗してしまう。
func (d PokemonDoc) ID() (int, error) {
	v, ok := d["id"]
	if !ok {
		return 0, fmt.Errorf("document has no id field")
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("id is not an integer: %v", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("id is not an integer: %w", err)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("id is not a number: %T", v)
	}
}
