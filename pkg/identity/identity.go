package identity

import (
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultNamespace = "default"

// namespaceFile is where the kubelet mounts the pod's namespace. Overridden
// in tests.
var namespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

// Namespace returns the namespace this pod runs in, falling back to
// "default" outside a cluster.
func Namespace() string {
	content, err := os.ReadFile(namespaceFile)
	if err != nil {
		return defaultNamespace
	}
	ns := strings.TrimSpace(string(content))
	if ns == "" {
		return defaultNamespace
	}
	return ns
}

// New derives an identity for this instance: the pod name (POD_NAME or
// HOSTNAME, else the OS hostname with a random suffix) joined with the
// worker id (WORKER_ID, else the pid). The result is stable for the process
// lifetime and traceable back to a pod in logs.
func New(log *zap.SugaredLogger) string {
	pod := os.Getenv("POD_NAME")
	if pod == "" {
		pod = os.Getenv("HOSTNAME")
	}
	if pod == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "leaselock"
		}
		pod = host + "-" + uuid.NewString()[:8]
	}
	worker := os.Getenv("WORKER_ID")
	if worker == "" {
		worker = strconv.Itoa(os.Getpid())
	}
	id := pod + "-" + worker
	log.Debugw("Derived election identity", "identity", id)
	return id
}
