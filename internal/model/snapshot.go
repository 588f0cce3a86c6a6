package model

// Snapshot 单期快照表：户标识 -> 当期水费金额
// 由 SnapshotBuilder 从一个工作簿中提取，提取完成后不再修改
type Snapshot struct {
	Sheet   string             `json:"sheet"`   // 中选的 Sheet 名称
	Amounts map[string]float64 `json:"amounts"` // 户标识 -> 金额（非负，无法解析时为 0）
}

// NewSnapshot 创建空快照
func NewSnapshot(sheet string) *Snapshot {
	return &Snapshot{
		Sheet:   sheet,
		Amounts: make(map[string]float64),
	}
}

// Len 快照中的户数
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Amounts)
}
