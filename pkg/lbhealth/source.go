// Package lbhealth looks up the backend health of externally managed load
// balancers referenced by ingress annotations. It is the most speculative
// integration point in a snapshot run: every failure here degrades to "not
// captured" and the rest of the pipeline never depends on its presence.
package lbhealth

import "context"

// AnnotationLoadBalancerARN marks an ingress as backed by an externally
// managed load balancer. Ingresses without it are skipped silently.
const AnnotationLoadBalancerARN = "alb.ingress.kubernetes.io/load-balancer-arn"

// TargetGroup is one group of backend endpoints behind a load balancer.
type TargetGroup struct {
	ARN      string `json:"arn"`
	Name     string `json:"name"`
	Protocol string `json:"protocol,omitempty"`
	Port     int64  `json:"port,omitempty"`
}

// TargetHealth is the health of one backend endpoint within a target group.
type TargetHealth struct {
	TargetID    string `json:"targetId"`
	Port        int64  `json:"port,omitempty"`
	State       string `json:"state"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

// Source answers load-balancer health queries. The pipeline only sees this
// interface; when no cloud credentials are available a no-op source takes
// its place and the whole subsystem is skipped with a single notice.
type Source interface {
	// Available reports whether the source can be queried at all.
	Available() bool

	// TargetGroups returns the target groups attached to a load balancer.
	TargetGroups(ctx context.Context, loadBalancerARN string) ([]TargetGroup, error)

	// TargetHealth returns the health of every target in a target group.
	TargetHealth(ctx context.Context, targetGroupARN string) ([]TargetHealth, error)
}

// LoadBalancerARN extracts the load balancer identifier from an ingress's
// annotations.
func LoadBalancerARN(annotations map[string]string) (string, bool) {
	arn, ok := annotations[AnnotationLoadBalancerARN]
	if !ok || arn == "" {
		return "", false
	}
	return arn, true
}
