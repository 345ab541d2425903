package model

import "time"

// NodeStatus 单节点处理结果
type NodeStatus string

const (
	NodeStatusSaved             NodeStatus = "saved"
	NodeStatusMissingFile       NodeStatus = "missing_file"
	NodeStatusMalformedDocument NodeStatus = "malformed_document"
	NodeStatusEmptyValue        NodeStatus = "empty_value"
	NodeStatusUnexpectedFailure NodeStatus = "unexpected_failure"
)

// NodeRecord 清单中的一行：节点地址与设备ID
type NodeRecord struct {
	Address  string `json:"address"`
	DeviceID string `json:"device_id"`
}

// Line 用分隔符拼接记录，不含换行
func (r NodeRecord) Line(delimiter string) string {
	return r.Address + delimiter + r.DeviceID
}

// NodeOutcome 单个节点的处理结果
type NodeOutcome struct {
	Index       int        `json:"index"`
	NodeDir     string     `json:"node_dir"`
	Status      NodeStatus `json:"status"`
	MissingFile string     `json:"missing_file,omitempty"`
	Record      NodeRecord `json:"record"`
	Error       string     `json:"error,omitempty"`
}

// Saved 节点是否写入了清单
func (o NodeOutcome) Saved() bool {
	return o.Status == NodeStatusSaved
}

// Summary 一次运行的汇总
type Summary struct {
	Requested  int                `json:"requested"`
	Outcomes   []NodeOutcome      `json:"outcomes"`
	Counts     map[NodeStatus]int `json:"counts"`
	ListPath   string             `json:"list_path"`
	ListSize   int64              `json:"list_size"`
	Checksum   string             `json:"checksum"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// NewSummary 创建空汇总
func NewSummary(requested int, listPath string) *Summary {
	return &Summary{
		Requested: requested,
		Counts:    make(map[NodeStatus]int),
		ListPath:  listPath,
		StartedAt: time.Now(),
	}
}

// Add 追加结果并累加对应状态计数
func (s *Summary) Add(o NodeOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Counts[o.Status]++
}

// Records 按清单顺序返回已保存的记录
func (s *Summary) Records() []NodeRecord {
	records := make([]NodeRecord, 0, s.Counts[NodeStatusSaved])
	for _, o := range s.Outcomes {
		if o.Saved() {
			records = append(records, o.Record)
		}
	}
	return records
}

// Skipped 已处理但未写入清单的节点数
func (s *Summary) Skipped() int {
	return len(s.Outcomes) - s.Counts[NodeStatusSaved]
}
