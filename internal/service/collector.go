package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/nodecollector/internal/config"
	"github.com/sshcollectorpro/nodecollector/internal/model"
)

// NodeInfoCollector 节点信息采集器
// 依次遍历 base_dir 下的 node-1..node-N，每个完整节点写入一行 "address|device_id"
type NodeInfoCollector struct {
	source config.SourceConfig
	output config.OutputConfig
	log    logrus.FieldLogger
}

// NewNodeInfoCollector 创建节点信息采集器
func NewNodeInfoCollector(cfg *config.Config, log logrus.FieldLogger) *NodeInfoCollector {
	return &NodeInfoCollector{
		source: cfg.Source,
		output: cfg.Output,
		log:    log,
	}
}

// Collect 截断清单并按顺序处理节点 1..nodeCount，负数按零个节点处理
// 单节点失败只记录到汇总中，不会中断循环。
// 仅在清单无法创建/关闭或ctx在节点之间被取消时返回错误，取消时同时返回部分汇总。
func (c *NodeInfoCollector) Collect(ctx context.Context, nodeCount int) (*model.Summary, error) {
	nodeCount = max(nodeCount, 0)
	summary := model.NewSummary(nodeCount, c.output.Path)

	w, err := OpenListing(c.output.Path, c.output.Delimiter)
	if err != nil {
		return nil, err
	}

	var runErr error
	for i := 1; i <= nodeCount; i++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("collection stopped before node %d: %w", i, err)
			break
		}

		outcome := c.collectNode(i)
		if outcome.Saved() {
			if err := w.Append(outcome.Record); err != nil {
				outcome.Status = model.NodeStatusUnexpectedFailure
				outcome.Error = err.Error()
			}
		}
		c.report(outcome)
		summary.Add(outcome)
	}

	stored, err := w.Close()
	summary.FinishedAt = time.Now()
	if err != nil {
		return summary, err
	}
	summary.ListSize = stored.Size
	summary.Checksum = stored.Checksum

	c.log.WithFields(logrus.Fields{
		"requested": nodeCount,
		"attempted": len(summary.Outcomes),
		"saved":     summary.Counts[model.NodeStatusSaved],
		"skipped":   summary.Skipped(),
		"listing":   stored.URI,
		"checksum":  stored.Checksum,
	}).Debug("Listing written")

	return summary, runErr
}

// collectNode 处理单个节点
func (c *NodeInfoCollector) collectNode(index int) model.NodeOutcome {
	nodeDir := c.source.NodeDir(index)
	outcome := model.NodeOutcome{Index: index, NodeDir: nodeDir}

	jsonPath := filepath.Join(nodeDir, c.source.NodeIDFile)
	devicePath := filepath.Join(nodeDir, c.source.DeviceIDFile)

	if !isRegularFile(jsonPath) {
		return skipMissing(outcome, c.source.NodeIDFile)
	}
	if !isRegularFile(devicePath) {
		return skipMissing(outcome, c.source.DeviceIDFile)
	}

	address, err := readNodeAddress(jsonPath, c.source.AddressKey, c.source.LegacyEncodings)
	if err != nil {
		outcome.Status = model.NodeStatusUnexpectedFailure
		if errors.Is(err, ErrMalformedDocument) {
			outcome.Status = model.NodeStatusMalformedDocument
		}
		outcome.Error = err.Error()
		return outcome
	}

	deviceID, err := readDeviceID(devicePath, c.source.LegacyEncodings)
	if err != nil {
		outcome.Status = model.NodeStatusUnexpectedFailure
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Record = model.NodeRecord{Address: address, DeviceID: deviceID}
	if address == "" || deviceID == "" {
		outcome.Status = model.NodeStatusEmptyValue
		outcome.Error = ErrEmptyValue.Error()
		return outcome
	}

	outcome.Status = model.NodeStatusSaved
	return outcome
}

func skipMissing(o model.NodeOutcome, name string) model.NodeOutcome {
	o.Status = model.NodeStatusMissingFile
	o.MissingFile = name
	o.Error = fmt.Sprintf("%s: %s", ErrMissingFile, name)
	return o
}

// report 输出单节点状态行
func (c *NodeInfoCollector) report(o model.NodeOutcome) {
	entry := c.log.WithField("node", o.Index)
	switch o.Status {
	case model.NodeStatusSaved:
		entry.WithFields(logrus.Fields{
			"address":   o.Record.Address,
			"device_id": o.Record.DeviceID,
		}).Infof("Saved Node %d: %s", o.Index, o.Record.Line(c.output.Delimiter))
	case model.NodeStatusMissingFile:
		entry.Warnf("Missing %s for node %d", o.MissingFile, o.Index)
	case model.NodeStatusMalformedDocument:
		entry.WithField("error", o.Error).Errorf("Invalid JSON format in %s for node %d", c.source.NodeIDFile, o.Index)
	case model.NodeStatusEmptyValue:
		entry.Warnf("Empty Node ID or Device ID for node %d", o.Index)
	default:
		entry.WithField("error", o.Error).Errorf("Error processing node %d: %s", o.Index, o.Error)
	}
}
