package manifest

// Example is a ready-to-edit manifest document installed by the examples
// command.
type Example struct {
	Filename string
	Content  string
}

// Examples returns one starter manifest per kind plus a multi-instance one.
func Examples() []Example {
	return []Example{
		{
			Filename: "basic.yaml",
			Content: `api-version: v1
deployments:
  - name: my-redis
    type: basic
    port: 6379
    persist: true
    memory: "512m"
    with-insight: true
`,
		},
		{
			Filename: "stack.yaml",
			Content: `api-version: v1
deployments:
  - name: my-stack
    type: stack
    port: 6380
    persist: true
    memory: "1g"
    with-insight: true
    insight-port: 8002
`,
		},
		{
			Filename: "cluster.yaml",
			Content: `api-version: v1
deployments:
  - name: my-cluster
    type: cluster
    masters: 3
    replicas: 1
    port-base: 7000
    persist: true
    memory: "256m"
    stack: false
    with-insight: true
`,
		},
		{
			Filename: "sentinel.yaml",
			Content: `api-version: v1
deployments:
  - name: my-sentinel
    type: sentinel
    sentinels: 3
    redis-port-base: 6379
    sentinel-port-base: 26379
    persist: true
    memory: "512m"
`,
		},
		{
			Filename: "enterprise.yaml",
			Content: `api-version: v1
deployments:
  - name: my-enterprise
    type: enterprise
    nodes: 3
    port-base: 8443
    create-db: "mydb"
    db-port: 12000
    memory: "4g"
    persist: false
    with-insight: true
`,
		},
		{
			Filename: "multi-deployment.yaml",
			Content: `api-version: v1
deployments:
  - name: cache-redis
    type: basic
    port: 6379
    memory: "256m"

  - name: analytics-stack
    type: stack
    port: 6380
    persist: true
    memory: "1g"
    with-insight: true

  - name: session-cluster
    type: cluster
    masters: 3
    replicas: 1
    port-base: 7000
    memory: "512m"
`,
		},
	}
}
