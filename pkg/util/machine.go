package util

import (
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	machineKeys   = map[string]string{}
	machineKeysMu sync.Mutex
)

// MachineKey returns a key derived from this machine's id and appID.
// The raw machine id is never exposed. Returns "" when the id cannot be read.
// MachineKey 返回由本机标识与 appID 派生的密钥, 无法读取机器标识时返回空字符串
func MachineKey(appID string) string {
	machineKeysMu.Lock()
	defer machineKeysMu.Unlock()

	if k, ok := machineKeys[appID]; ok {
		return k
	}
	k, err := machineid.ProtectedID(appID)
	if err != nil {
		return ""
	}
	machineKeys[appID] = k
	return k
}
