package model

import "time"

// RunReport 一次采集运行的持久化记录
type RunReport struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Requested         int       `json:"requested" gorm:"not null"`
	Saved             int       `json:"saved" gorm:"not null;default:0"`
	MissingFile       int       `json:"missing_file" gorm:"not null;default:0"`
	MalformedDocument int       `json:"malformed_document" gorm:"not null;default:0"`
	EmptyValue        int       `json:"empty_value" gorm:"not null;default:0"`
	UnexpectedFailure int       `json:"unexpected_failure" gorm:"not null;default:0"`
	ListPath          string    `json:"list_path" gorm:"type:text;not null"`
	ListSize          int64     `json:"list_size"`
	Checksum          string    `json:"checksum" gorm:"type:varchar(80)"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`

	Nodes []NodeReport `json:"nodes" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName 表名
func (RunReport) TableName() string {
	return "run_reports"
}

// NodeReport 单节点处理记录
type NodeReport struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	RunID       uint   `json:"run_id" gorm:"not null;index"`
	NodeIndex   int    `json:"node_index" gorm:"not null"`
	Status      string `json:"status" gorm:"type:varchar(32);not null"`
	MissingFile string `json:"missing_file" gorm:"type:varchar(255)"`
	Address     string `json:"address" gorm:"type:text"`
	DeviceID    string `json:"device_id" gorm:"type:text"`
	Error       string `json:"error" gorm:"type:text"`
}

// TableName 表名
func (NodeReport) TableName() string {
	return "node_reports"
}

// NewRunReport 将运行汇总转换为持久化记录
func NewRunReport(s *Summary) *RunReport {
	r := &RunReport{
		Requested:         s.Requested,
		Saved:             s.Counts[NodeStatusSaved],
		MissingFile:       s.Counts[NodeStatusMissingFile],
		MalformedDocument: s.Counts[NodeStatusMalformedDocument],
		EmptyValue:        s.Counts[NodeStatusEmptyValue],
		UnexpectedFailure: s.Counts[NodeStatusUnexpectedFailure],
		ListPath:          s.ListPath,
		ListSize:          s.ListSize,
		Checksum:          s.Checksum,
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
		Nodes:             make([]NodeReport, 0, len(s.Outcomes)),
	}
	for _, o := range s.Outcomes {
		r.Nodes = append(r.Nodes, NodeReport{
			NodeIndex:   o.Index,
			Status:      string(o.Status),
			MissingFile: o.MissingFile,
			Address:     o.Record.Address,
			DeviceID:    o.Record.DeviceID,
			Error:       o.Error,
		})
	}
	return r
}
