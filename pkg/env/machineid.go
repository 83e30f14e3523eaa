package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

const machineIDLen = 12

// MachineID retrieves an ID identifying the machine, scoped to this
// application. It falls back to the host name.
func MachineID() string {
	id, err := machineid.ProtectedID("wsn")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "wsn"
		}
		return id
	}
	if len(id) > machineIDLen {
		id = id[:machineIDLen]
	}
	return id
}
