package fake

import "github.com/slok/deployboard/internal/model"

// DefaultCatalog is the stage catalog served by default.
func DefaultCatalog() []model.StageDefinition {
	stages := []model.StageDefinition{
		{Name: "prepare", Label: "Preparation and plan validation", Group: "Preparation", Description: "Find the plan, validate its structure, check dependencies and probe base connectivity."},
		{Name: "init_cluster", Label: "Initialize cluster", Group: "Cluster deployment", Description: "Create the empty cluster and initialize base resources."},
		{Name: "config_cluster", Label: "Cluster configuration", Group: "Cluster deployment", Description: "Apply cluster network, security and resource settings."},
		{Name: "deploy_cloudtower", Label: "Deploy CloudTower", Group: "Platform services", Description: "Deploy the CloudTower management components."},
		{Name: "attach_cluster", Label: "Attach to CloudTower", Group: "Platform services", Description: "Attach the cluster to CloudTower and set up trust."},
		{Name: "cloudtower_config", Label: "CloudTower configuration", Group: "Platform services", Description: "Apply CloudTower advanced settings and integrations."},
		{Name: "check_cluster_healthy", Label: "Cluster inspection", Group: "Platform services", Description: "Run the health inspection and export the report."},
		{Name: "deploy_obs", Label: "Deploy OBS", Group: "Business delivery", Description: "Upload and deploy the observability package."},
		{Name: "deploy_bak", Label: "Deploy BAK", Group: "Business delivery", Description: "Upload and deploy the backup package."},
		{Name: "deploy_er", Label: "Deploy ER", Group: "Business delivery", Description: "Upload and deploy the ER package."},
		{Name: "deploy_sfs", Label: "Deploy SFS", Group: "Business delivery", Description: "Upload and deploy the SFS package."},
		{Name: "deploy_sks", Label: "Deploy SKS", Group: "Business delivery", Description: "Upload and deploy the SKS package."},
		{Name: "create_test_vms", Label: "Create test VMs", Group: "Acceptance", Description: "Create and configure the validation virtual machines."},
		{Name: "perf_reliability", Label: "Performance and reliability", Group: "Acceptance", Description: "Run the performance baseline and reliability checks."},
		{Name: "cleanup", Label: "Cleanup", Group: "Finish", Description: "Tune settings, release temporary resources and archive the deployment."},
	}

	for i := range stages {
		stages[i].Order = i + 1
	}

	return stages
}
