package parser

import "strings"

// 汇总行标记：户标识中出现这些词的行是小计/合计行，不是真实住户
var aggregateMarkers = []string{"total", "sum", "grand"}

// NormalizeFlatID 由 Block + Flat 两段构造规范户标识
// 各段去首尾空格并剥掉装饰性尖括号后无分隔拼接："<A>" + "<101>" -> "A101"
// 任一段剥完后为空或为缺失占位（nan/None）则整行无效，返回空串
func NormalizeFlatID(group, subid string) string {
	g := stripDecoration(group)
	s := stripDecoration(subid)
	if !partPresent(g) || !partPresent(s) {
		return ""
	}
	return g + s
}

// NormalizeID 单标识列版式的户标识规范化（仅剥装饰）
func NormalizeID(s string) string {
	return stripDecoration(s)
}

func stripDecoration(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return strings.TrimSpace(s)
}

func partPresent(p string) bool {
	return p != "" && p != "nan" && p != "None"
}

// IsEntityID 规范化后的户标识是否指向真实住户
// 空串、"nan"/"None"（来源数据的缺失占位）及汇总行标记一律排除
func IsEntityID(id string) bool {
	if !partPresent(id) {
		return false
	}
	lower := strings.ToLower(id)
	return !ContainsAny(lower, aggregateMarkers)
}
