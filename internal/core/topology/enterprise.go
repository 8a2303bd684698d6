package topology

import (
	"fmt"
	"time"

	"github.com/joshrotenberg/redis-up/internal/core/instance"
)

// Fixed container-side ports for the enterprise admin container.
const (
	enterpriseUIPort  = 8443
	enterpriseAPIPort = 9443
)

// enterpriseAPIOffset is the distance from the published UI port to the
// published API port.
const enterpriseAPIOffset = 1000

// enterpriseDBPortSpan is how many database ports are published starting at
// the configured base.
const enterpriseDBPortSpan = 10

// EnterpriseAdminUser is the bootstrap administrator account.
const EnterpriseAdminUser = "admin@redis.local"

// Placeholders recorded when the cluster has not been bootstrapped or no
// database exists yet.
const (
	EnterprisePendingURL     = "<pending database creation>"
	EnterpriseManualPassword = "<set during UI setup>"
)

const (
	enterpriseDBMemoryBytes  = 104857600
	enterpriseBootstrapTries = 12
	enterpriseBootstrapDelay = 10 * time.Second
	enterpriseCreateDBTries  = 5
	enterpriseCreateDBDelay  = 5 * time.Second
)

// EnterprisePersistVolumes returns the named volumes backing an enterprise
// container's persistent and ephemeral storage. Both are removed on stop.
//
// Pattern: {instance}-persistent, {instance}-ephemeral
func EnterprisePersistVolumes(instanceName string) (persistent, ephemeral string) {
	return fmt.Sprintf("%s-persistent", instanceName), fmt.Sprintf("%s-ephemeral", instanceName)
}

// EnterpriseOptions configures an enterprise cluster plan.
type EnterpriseOptions struct {
	Nodes    int
	PortBase int
	DBPort   int

	// CreateDB names the database created after bootstrap. Empty skips
	// database creation, leaving the connection URL pending.
	CreateDB string

	// Manual starts the admin container without forming the cluster; setup
	// finishes in the browser UI.
	Manual bool

	Persist     bool
	Memory      string
	Insight     bool
	InsightPort int
}

// BuildEnterprise lays out the single administrative container, publishing
// the UI on portBase, the REST API on portBase+1000, and a block of database
// ports starting at the configured base. Unless Manual is set, bootstrap
// steps form the cluster and optionally create the first database.
func BuildEnterprise(name, password string, opts EnterpriseOptions) *Plan {
	containerName := EnterpriseContainerName(name)
	apiPort := opts.PortBase + enterpriseAPIOffset

	admin := ContainerPlan{
		Name:   containerName,
		Image:  ImageEnterprise,
		CapAdd: []string{"SYS_RESOURCE"},
		Memory: opts.Memory,
		Ports: []PortMapping{
			{Host: opts.PortBase, Container: enterpriseUIPort},
			{Host: apiPort, Container: enterpriseAPIPort},
		},
	}

	for i := 0; i < enterpriseDBPortSpan; i++ {
		port := opts.DBPort + i
		admin.Ports = append(admin.Ports, PortMapping{Host: port, Container: port})
	}

	plan := &Plan{
		Name:  name,
		Kind:  instance.KindEnterprise,
		Ports: []int{opts.PortBase, apiPort, opts.DBPort},
	}

	if opts.Persist {
		persistent, ephemeral := EnterprisePersistVolumes(name)
		plan.Volumes = append(plan.Volumes, persistent, ephemeral)
		admin.Mounts = append(admin.Mounts,
			MountPlan{Source: persistent, Target: "/var/opt/redislabs/persist"},
			MountPlan{Source: ephemeral, Target: "/var/opt/redislabs/tmp"},
		)
	}

	plan.Containers = append(plan.Containers, admin)

	dbCreated := false
	if !opts.Manual {
		// The admin processes take a while to come up, so cluster creation
		// is retried until rladmin succeeds.
		plan.Bootstrap = append(plan.Bootstrap, BootstrapStep{
			Container: containerName,
			Cmd: []string{
				"rladmin", "cluster", "create",
				"name", EnterpriseClusterName(name),
				"username", EnterpriseAdminUser,
				"password", password,
			},
			Attempts:     enterpriseBootstrapTries,
			Delay:        enterpriseBootstrapDelay,
			InitialDelay: enterpriseBootstrapDelay,
		})

		if opts.CreateDB != "" {
			body := fmt.Sprintf(`{"name":"%s","type":"redis","memory_size":%d,"port":%d}`,
				opts.CreateDB, enterpriseDBMemoryBytes, opts.DBPort)
			plan.Bootstrap = append(plan.Bootstrap, BootstrapStep{
				Container: containerName,
				Cmd: []string{
					"curl", "-k", "-s", "-f",
					"-u", fmt.Sprintf("%s:%s", EnterpriseAdminUser, password),
					"-X", "POST",
					fmt.Sprintf("https://localhost:%d/v1/bdbs", enterpriseAPIPort),
					"-H", "Content-Type: application/json",
					"-d", body,
				},
				Attempts: enterpriseCreateDBTries,
				Delay:    enterpriseCreateDBDelay,
			})
			dbCreated = true
		}
	}

	attrs := instance.EnterpriseAttrs{
		Nodes:   1,
		UIPort:  opts.PortBase,
		APIPort: apiPort,
		DBPort:  opts.DBPort,
		Manual:  opts.Manual,
		Insight: opts.Insight,
	}
	if dbCreated {
		attrs.DBName = opts.CreateDB
	}

	conn := instance.Connection{
		Host:  "localhost",
		Port:  opts.DBPort,
		URL:   EnterprisePendingURL,
		Extra: map[string]int{"ui": opts.PortBase, "api": apiPort},
	}
	if opts.Manual {
		conn.Password = EnterpriseManualPassword
	} else {
		conn.Password = password
	}
	if dbCreated {
		conn.URL = fmt.Sprintf("redis://localhost:%d", opts.DBPort)
	}

	if opts.Insight {
		plan.Containers = append(plan.Containers, insightContainer(name, opts.InsightPort, ""))
		conn.Extra["redisinsight"] = opts.InsightPort
		attrs.InsightPort = opts.InsightPort
	}

	plan.Connection = conn
	plan.Attributes = attrs
	return plan
}
