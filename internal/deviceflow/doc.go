// Package deviceflow implements the client side of the OAuth 2.0 Device
// Authorization Grant as served by github.com.
//
// An Authorizer first requests a device code and a user code, which the user
// enters at the verification URI in a browser. It then polls the token
// endpoint until the grant succeeds:
//
//	authorizer := deviceflow.New(cfg, client)
//	token, err := authorizer.Authorize(ctx, func(code *deviceflow.DeviceCode) {
//		fmt.Printf("open %s and enter %s\n", code.VerificationURI, code.UserCode)
//	})
//
// Token endpoint answers are decoded into a TokenResponse whose Kind tells
// a granted token apart from an error. authorization_pending and slow_down
// keep the loop going; every other code ends it with an *AuthorizationError.
// The number of polls is bounded by floor(expires_in / interval), computed
// from the initial interval; running out yields a *TimeoutError.
package deviceflow
