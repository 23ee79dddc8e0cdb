// Package embedding 负责把房间记录转成画像文本并向量化。
package embedding

import (
	"strconv"
	"strings"

	"github.com/rushteam/roomrec/core"
)

// DefaultCurrency 画像文本中的价格单位
const DefaultCurrency = "IDR"

// ProfileBuilder 生成房间画像文本。
//
// 输出格式固定、字段顺序固定，同一房间记录总是生成同一字符串：
//
//	Room: <name> | Category: <cat> | Capacity: <n> people | Price: <p> <currency> per hour
//	| Description: <d> | Consoles: <a, b> | Controllers: <sum> total
//
// Description 为空时省略；没有主机时省略最后两段。
type ProfileBuilder struct {
	Currency string
}

func NewProfileBuilder(currency string) *ProfileBuilder {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &ProfileBuilder{Currency: currency}
}

// Build 生成画像文本。
func (b *ProfileBuilder) Build(room *core.Room) string {
	currency := b.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	parts := []string{
		"Room: " + room.Name,
		"Category: " + string(room.Category),
		"Capacity: " + strconv.Itoa(room.Capacity) + " people",
		"Price: " + formatPrice(room.PricePerHour) + " " + currency + " per hour",
	}
	if desc := strings.TrimSpace(room.Description); desc != "" {
		parts = append(parts, "Description: "+desc)
	}
	if len(room.Units) > 0 {
		consoles := make([]string, 0, len(room.Units))
		controllers := 0
		for _, u := range room.Units {
			consoles = append(consoles, string(u.ConsoleType))
			controllers += u.Controllers
		}
		parts = append(parts,
			"Consoles: "+strings.Join(consoles, ", "),
			"Controllers: "+strconv.Itoa(controllers)+" total",
		)
	}
	return strings.Join(parts, " | ")
}

// BuildProfile 使用默认币种生成画像文本。
func BuildProfile(room *core.Room) string {
	return NewProfileBuilder(DefaultCurrency).Build(room)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
