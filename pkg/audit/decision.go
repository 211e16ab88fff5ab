// Package audit records the outcome of authorizing a remote identity.
package audit

import (
	"context"
	"errors"

	"k8s.io/klog/v2"

	"github.com/openshift/oauth-resource-server/pkg/api"
)

// Decision is made with regards to authorization.
type Decision string

const (
	// UsernameKey is the log key for the local username the identity maps to.
	UsernameKey = "authentication.openshift.io/username"
	// DecisionKey is the log key for the authorization decision.
	DecisionKey = "authentication.openshift.io/decision"

	// AllowDecision is logged when the identity is authorized.
	AllowDecision Decision = "allow"
	// DenyDecision is logged when the identity authenticated but is not authorized.
	DenyDecision Decision = "deny"
	// ErrorDecision is logged on errors that might not relate to the
	// authorization itself.
	ErrorDecision Decision = "error"
)

// DecisionFor classifies the error returned by an authorization attempt.
func DecisionFor(err error) Decision {
	if err == nil {
		return AllowDecision
	}
	var denied api.AuthorizationDeniedError
	if errors.As(err, &denied) {
		return DenyDecision
	}
	return ErrorDecision
}

// Record logs the decision taken for username by provider. The username is best effort and
// may be empty when the attempt failed before it was known.
func Record(ctx context.Context, provider, username string, decision Decision) {
	logger := klog.FromContext(ctx)
	keysAndValues := []interface{}{"provider", provider, DecisionKey, string(decision)}
	if len(username) > 0 {
		keysAndValues = append(keysAndValues, UsernameKey, username)
	}
	logger.V(1).Info("authorization decision", keysAndValues...)
}
