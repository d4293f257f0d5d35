package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/codr1/Clubhouse/internal/api/authz"
)

type fakeCognito struct {
	out *cognitoidentityprovider.AdminGetUserOutput
	err error
	got *cognitoidentityprovider.AdminGetUserInput
}

func (f *fakeCognito) AdminGetUser(ctx context.Context, params *cognitoidentityprovider.AdminGetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminGetUserOutput, error) {
	f.got = params
	return f.out, f.err
}

func attrs(pairs ...string) []types.AttributeType {
	var out []types.AttributeType
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.AttributeType{Name: aws.String(pairs[i]), Value: aws.String(pairs[i+1])})
	}
	return out
}

func TestRegionFromPoolID(t *testing.T) {
	tests := []struct {
		poolID  string
		want    string
		wantErr bool
	}{
		{poolID: "ap-southeast-2_AbCdEf", want: "ap-southeast-2"},
		{poolID: "us-east-1_x", want: "us-east-1"},
		{poolID: "nounderscore", wantErr: true},
		{poolID: "_missingregion", wantErr: true},
		{poolID: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.poolID, func(t *testing.T) {
			got, err := regionFromPoolID(tt.poolID)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.poolID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("regionFromPoolID(%q) = %q, want %q", tt.poolID, got, tt.want)
			}
		})
	}
}

func TestLookupEmail(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeCognito
		want    string
		wantErr error
	}{
		{
			name: "verified email",
			fake: &fakeCognito{out: &cognitoidentityprovider.AdminGetUserOutput{
				UserAttributes: attrs("sub", "abc", "email", " Admin@Club.org ", "email_verified", "true"),
			}},
			want: "Admin@Club.org",
		},
		{
			name: "unverified email is ignored",
			fake: &fakeCognito{out: &cognitoidentityprovider.AdminGetUserOutput{
				UserAttributes: attrs("email", "admin@club.org", "email_verified", "false"),
			}},
			want: "",
		},
		{
			name: "no email attribute",
			fake: &fakeCognito{out: &cognitoidentityprovider.AdminGetUserOutput{
				UserAttributes: attrs("phone_number", "+61400000000"),
			}},
			want: "",
		},
		{
			name:    "user not found",
			fake:    &fakeCognito{err: &types.UserNotFoundException{Message: aws.String("missing")}},
			wantErr: ErrCognitoUserNotFound,
		},
		{
			name:    "throttled",
			fake:    &fakeCognito{err: &types.TooManyRequestsException{Message: aws.String("slow down")}},
			wantErr: ErrCognitoThrottled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{client: tt.fake, poolID: "ap-southeast-2_pool"}
			got, err := client.LookupEmail(context.Background(), "abc")
			if tt.wantErr != nil {
				if !errors.Is(err, authz.ErrLookup) {
					t.Fatalf("expected ErrLookup, got %v", err)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if aws.ToString(tt.fake.got.Username) != "abc" || aws.ToString(tt.fake.got.UserPoolId) != "ap-southeast-2_pool" {
				t.Fatalf("unexpected request: %+v", tt.fake.got)
			}
		})
	}
}

func TestLookupEmailNilClient(t *testing.T) {
	var client *Client
	if _, err := client.LookupEmail(context.Background(), "abc"); !errors.Is(err, authz.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}
