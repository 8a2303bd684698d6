package topology

// RedisInsight listens on 5540 inside the container regardless of the host
// port it is published on.
const insightContainerPort = 5540

// insightContainer plans the RedisInsight companion for an instance. The
// container is auxiliary: a failed UI never fails the instance itself.
func insightContainer(instanceName string, port int, network string) ContainerPlan {
	return ContainerPlan{
		Name:  InsightContainerName(instanceName),
		Image: ImageInsight,
		Env: map[string]string{
			"REDISINSIGHT_PORT":      "5540",
			"REDISINSIGHT_HOST":      "0.0.0.0",
			"REDISINSIGHT_LOG_LEVEL": "warning",
		},
		Ports:   []PortMapping{{Host: port, Container: insightContainerPort}},
		Network: network,
		Aux:     true,
	}
}
