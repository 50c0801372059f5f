package wine

import "errors"

var (
	// ErrDataSource 目录无法读取或找不到数据文件，启动时致命
	ErrDataSource = errors.New("wine catalog unavailable")

	// ErrIndexBuild 非空目录没有生成任何文档，启动时致命
	ErrIndexBuild = errors.New("vector index build failed")

	// ErrIndexUnavailable 缺少计算 embedding 所需的凭据
	ErrIndexUnavailable = errors.New("vector index unavailable: embedding API key is not configured")

	// ErrEmptyQuery 消息与口味档案都为空，无法构造检索语句
	ErrEmptyQuery = errors.New("empty retrieval query")

	// ErrGeneration 文本生成失败，由对话层降级为 error 回复
	ErrGeneration = errors.New("reply generation failed")
)
