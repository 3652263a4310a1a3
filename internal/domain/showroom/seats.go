package showroom

import (
	"sort"

	"github.com/sanosuguru/cinema-ticket-booking/internal/domain/apperror"
)

// ValidateSeatLabels はリクエストされた座席ラベルを検証する
// ラベルは大文字小文字を区別する不透明な文字列として扱う
func ValidateSeatLabels(seats []string) error {
	if len(seats) == 0 {
		return apperror.NewValidationError("seats", "1席以上指定してください")
	}
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if s == "" {
			return apperror.NewValidationError("seats", "空の座席ラベルは指定できません")
		}
		if _, dup := seen[s]; dup {
			return apperror.NewValidationError("seats", "座席ラベル "+s+" が重複しています")
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Intersect は a と b の共通要素をソートして返す
func Intersect(a, b []string) []string {
	set := toSet(a)
	var out []string
	seen := make(map[string]struct{})
	for _, s := range b {
		if _, ok := set[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Union は a と b の和集合をソートして返す
func Union(a, b []string) []string {
	set := toSet(a)
	for _, s := range b {
		set[s] = struct{}{}
	}
	return sortedKeys(set)
}

// Difference は a から b の要素を取り除いた集合をソートして返す
func Difference(a, b []string) []string {
	set := toSet(a)
	for _, s := range b {
		delete(set, s)
	}
	return sortedKeys(set)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
