package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const nodeCountPrompt = "Enter number of nodes: "

// promptNodeCount 在out上提示并从in读取一行节点数量
func promptNodeCount(in io.Reader, out io.Writer) (int, error) {
	fmt.Fprint(out, nodeCountPrompt)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, fmt.Errorf("failed to read number of nodes: %w", err)
	}
	return parseNodeCount(line)
}

// parseNodeCount 解析节点数量，负数原样返回，由采集器按零个节点处理
func parseNodeCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number of nodes %q: must be an integer", s)
	}
	return n, nil
}
