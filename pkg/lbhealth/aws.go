package lbhealth

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/elbv2"
	"github.com/aws/aws-sdk-go/service/elbv2/elbv2iface"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

type awsSource struct {
	elb elbv2iface.ELBV2API
}

var _ Source = (*awsSource)(nil)

// NewAWSSource builds a Source backed by the AWS elastic load balancing API.
// When no usable credentials can be resolved from the environment or the
// shared config, a NoopSource is returned instead so callers never have to
// distinguish "absent" from "present" themselves.
func NewAWSSource() Source {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		klog.V(1).Infof("AWS session could not be created, load balancer health will not be captured: %v", err)
		return NoopSource{}
	}

	if _, err := sess.Config.Credentials.Get(); err != nil {
		klog.V(1).Infof("No AWS credentials available, load balancer health will not be captured: %v", err)
		return NoopSource{}
	}

	return &awsSource{elb: elbv2.New(sess)}
}

func (s *awsSource) Available() bool {
	return true
}

func (s *awsSource) TargetGroups(ctx context.Context, loadBalancerARN string) ([]TargetGroup, error) {
	out, err := s.elb.DescribeTargetGroupsWithContext(ctx, &elbv2.DescribeTargetGroupsInput{
		LoadBalancerArn: aws.String(loadBalancerARN),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to describe target groups for %s", loadBalancerARN)
	}

	groups := make([]TargetGroup, 0, len(out.TargetGroups))
	for _, tg := range out.TargetGroups {
		groups = append(groups, TargetGroup{
			ARN:      aws.StringValue(tg.TargetGroupArn),
			Name:     aws.StringValue(tg.TargetGroupName),
			Protocol: aws.StringValue(tg.Protocol),
			Port:     aws.Int64Value(tg.Port),
		})
	}

	return groups, nil
}

func (s *awsSource) TargetHealth(ctx context.Context, targetGroupARN string) ([]TargetHealth, error) {
	out, err := s.elb.DescribeTargetHealthWithContext(ctx, &elbv2.DescribeTargetHealthInput{
		TargetGroupArn: aws.String(targetGroupARN),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to describe target health for %s", targetGroupARN)
	}

	healths := make([]TargetHealth, 0, len(out.TargetHealthDescriptions))
	for _, desc := range out.TargetHealthDescriptions {
		h := TargetHealth{}
		if desc.Target != nil {
			h.TargetID = aws.StringValue(desc.Target.Id)
			h.Port = aws.Int64Value(desc.Target.Port)
		}
		if desc.TargetHealth != nil {
			h.State = aws.StringValue(desc.TargetHealth.State)
			h.Reason = aws.StringValue(desc.TargetHealth.Reason)
			h.Description = aws.StringValue(desc.TargetHealth.Description)
		}
		healths = append(healths, h)
	}

	return healths, nil
}
