// Package github implements a sample command authorized with the github
// provider: whoami shows the authorized account and issues lists repository
// issues.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v80/github"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/schema"
)

const (
	Name     = "github"
	Provider = "github"

	defaultPerPage = 10
	maxPerPage     = 50
	// hostSecret names the secret selecting a GitHub Enterprise host.
	hostSecret = "github_host"
)

// Command calls the GitHub API with the user's access token.
type Command struct {
	HTTPClient *http.Client
}

func (c *Command) Command() *invoke.Command {
	return &invoke.Command{Name: Name, Provider: Provider, Description: "GitHub: whoami, issues repository=owner/repo", Run: c.Run}
}

func (c *Command) Run(ctx context.Context, request *invoke.Request) (*message.Message, error) {
	client, err := c.client(request)
	if err != nil {
		return nil, err
	}
	action := request.Params.String("action")
	switch action {
	case "", "whoami":
		return whoami(ctx, client)
	case "issues":
		return issues(ctx, client, request.Params)
	default:
		return message.NewEphemeral(fmt.Sprintf("Unknown action %s, expected whoami or issues", message.Bold(action))), nil
	}
}

func (c *Command) client(request *invoke.Request) (*gh.Client, error) {
	if request.AccessToken == "" {
		return nil, schema.NewError(schema.ErrNotAuthenticated, "You did not authenticate", nil)
	}
	client := gh.NewClient(c.HTTPClient).WithAuthToken(request.AccessToken)
	// host is taken from operator secrets only
	host := request.Secrets[hostSecret]
	if host == "" || host == "github.com" {
		return client, nil
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return client.WithEnterpriseURLs(host, host)
}

func whoami(ctx context.Context, client *gh.Client) (*message.Message, error) {
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	ret := message.NewInChannel(fmt.Sprintf("Authorized as %s", message.Link(user.GetLogin(), user.GetHTMLURL())))
	ret.Section(fmt.Sprintf("Authorized as %s", message.Bold(message.Link(user.GetLogin(), user.GetHTMLURL()))))
	ret.Fields(
		fmt.Sprintf("%s\n%s", message.Bold("Name"), orDash(user.GetName())),
		fmt.Sprintf("%s\n%d", message.Bold("Public repositories"), user.GetPublicRepos()),
	)
	if avatar := user.GetAvatarURL(); avatar != "" {
		ret.Image(avatar, user.GetLogin())
	}
	return ret, nil
}

func issues(ctx context.Context, client *gh.Client, params schema.Params) (*message.Message, error) {
	repository := params.String("repository")
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return message.NewEphemeral("*please specify repository* e.g. repository=owner/repo"), nil
	}
	state := params.String("state")
	switch state {
	case "":
		state = "open"
	case "open", "closed", "all":
	default:
		return message.NewEphemeral("*valid states are: open, closed, all*"), nil
	}
	perPage := params.Int("per_page", defaultPerPage)
	if perPage <= 0 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	list, _, err := client.Issues.ListByRepo(ctx, owner, repo, &gh.IssueListByRepoOptions{
		State:       state,
		ListOptions: gh.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues for %v: %w", repository, err)
	}
	title := fmt.Sprintf("%s issues for %s", strings.ToUpper(state[:1])+state[1:], message.Bold(repository))
	ret := message.NewInChannel(title).Section(title)
	count := 0
	for _, issue := range list {
		if issue.IsPullRequest() {
			continue
		}
		count++
		ret.Divider()
		ret.Section(fmt.Sprintf("%s %s", message.Link(fmt.Sprintf("#%d", issue.GetNumber()), issue.GetHTMLURL()), issue.GetTitle()))
		ret.Context(fmt.Sprintf("opened by %s", issue.GetUser().GetLogin()), fmt.Sprintf("%d comments", issue.GetComments()))
	}
	if count == 0 {
		ret.Section("No issues found")
	}
	return ret, nil
}

func orDash(text string) string {
	if text == "" {
		return "-"
	}
	return text
}
