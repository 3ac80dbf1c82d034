// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Registry RegistryServiceConfig // Registry related config // 注册表相关配置
}

// RegistryServiceConfig registry service configuration
// RegistryServiceConfig 注册表服务配置
type RegistryServiceConfig struct {
	MaxPayloadSize  int  // Max note payload in bytes, 0 for unlimited // 笔记内容最大字节数, 0 表示不限制
	EventPageLimit  int  // Max events returned per page // 每页返回的最大事件数
	PublishEvents   bool // Publish committed events to live subscribers // 提交后向订阅者推送事件
	LogNotePayloads bool // Log payload sizes of created notes // 记录创建笔记的内容大小
}
