package panther

// GraphQL documents used against the public Panther API.

const listAlertsQuery = `
query FirstPageOfAllAlerts($input: AlertsInput!) {
    alerts(input: $input) {
        edges {
            node {
                id
                title
                severity
                status
                createdAt
                type
                description
                reference
                runbook
                firstEventOccurredAt
                lastReceivedEventAt
                origin {
                    ... on Detection {
                        id
                        name
                    }
                }
            }
        }
        pageInfo {
            hasNextPage
            endCursor
            hasPreviousPage
            startCursor
        }
    }
}`

const getAlertQuery = `
query GetAlertById($id: ID!) {
    alert(id: $id) {
        id
        title
        severity
        status
        createdAt
        type
        description
        reference
        runbook
        firstEventOccurredAt
        lastReceivedEventAt
        updatedAt
        origin {
            ... on Detection {
                id
                name
            }
        }
    }
}`

const updateAlertStatusMutation = `
mutation UpdateAlertStatusById($input: UpdateAlertStatusByIdInput!) {
    updateAlertStatusById(input: $input) {
        alerts {
            id
            status
            updatedAt
        }
    }
}`

const addAlertCommentMutation = `
mutation CreateAlertComment($input: CreateAlertCommentInput!) {
    createAlertComment(input: $input) {
        comment {
            id
            body
            createdAt
            createdBy {
                ... on User {
                    id
                    email
                    givenName
                    familyName
                }
            }
            format
        }
    }
}`

const updateAlertsAssigneeMutation = `
mutation UpdateAlertsAssigneeById($input: UpdateAlertsAssigneeByIdInput!) {
    updateAlertsAssigneeById(input: $input) {
        alerts {
            id
            assignee {
                id
                email
                givenName
                familyName
            }
        }
    }
}`

const listSourcesQuery = `
query Sources($input: SourcesInput) {
    sources(input: $input) {
        edges {
            node {
                integrationId
                integrationLabel
                integrationType
                isEditable
                isHealthy
                lastEventProcessedAtTime
                lastEventReceivedAtTime
                lastModified
                logTypes
                ... on S3LogIntegration {
                    awsAccountId
                    kmsKey
                    logProcessingRole
                    logStreamType
                    managedBucketNotifications
                    s3Bucket
                    s3Prefix
                    stackName
                }
            }
        }
        pageInfo {
            hasNextPage
            hasPreviousPage
            startCursor
            endCursor
        }
    }
}`

const schemaQuery = `
query GetSchemaDetails($name: String!) {
    schemas(input: { contains: $name }) {
        edges {
            node {
                name
                description
                revision
                isArchived
                isManaged
                referenceURL
                createdAt
                updatedAt
                spec
            }
        }
    }
}`

const executeQueryMutation = `
mutation ExecuteDataLakeQuery($input: ExecuteDataLakeQueryInput!) {
    executeDataLakeQuery(input: $input) {
        id
    }
}`

const getQueryQuery = `
query GetDataLakeQuery($id: ID!, $root: Boolean = false, $cursor: String, $pageSize: Int = 999) {
    dataLakeQuery(id: $id, root: $root) {
        id
        status
        message
        sql
        startedAt
        completedAt
        results(input: { cursor: $cursor, pageSize: $pageSize }) {
            edges {
                node
            }
            pageInfo {
                hasNextPage
                endCursor
            }
            columnInfo {
                order
                types
            }
            stats {
                bytesScanned
                executionTime
                rowCount
            }
        }
    }
}`

const listQueriesQuery = `
query ListDataLakeQueries($input: DataLakeQueriesInput) {
    dataLakeQueries(input: $input) {
        edges {
            node {
                id
                sql
                name
                status
                message
                startedAt
                completedAt
                isScheduled
                issuedBy {
                    ... on User {
                        id
                        email
                        givenName
                        familyName
                    }
                    ... on APIToken {
                        id
                        name
                    }
                }
            }
        }
        pageInfo {
            hasNextPage
            endCursor
        }
    }
}`

const cancelQueryMutation = `
mutation CancelDataLakeQuery($input: CancelDataLakeQueryInput!) {
    cancelDataLakeQuery(input: $input) {
        id
    }
}`

const listDatabasesQuery = `
query ListDatabases {
    dataLakeDatabases {
        name
        description
    }
}`

const listTablesQuery = `
query ListDatabaseTables($input: DataLakeDatabaseTablesInput!) {
    dataLakeDatabaseTables(input: $input) {
        edges {
            node {
                name
                description
                logType
            }
        }
        pageInfo {
            hasNextPage
            endCursor
        }
    }
}`

const tableColumnsQuery = `
query GetColumnDetails($databaseName: String!, $tableName: String!) {
    dataLakeDatabaseTable(input: { databaseName: $databaseName, tableName: $tableName }) {
        name
        displayName
        description
        logType
        columns {
            name
            type
            description
        }
    }
}`

const listUsersQuery = `
query ListUsers {
    users {
        id
        email
        givenName
        familyName
        createdAt
        lastLoggedInAt
        status
        enabled
        role {
            id
            name
            permissions
        }
    }
}`

const alertsPerSeverityQuery = `
query Metrics($input: MetricsInput!) {
    metrics(input: $input) {
        alertsPerSeverity {
            label
            value
            breakdown
        }
        totalAlerts
    }
}`

const alertsPerRuleQuery = `
query Metrics($input: MetricsInput!) {
    metrics(input: $input) {
        alertsPerRule {
            entityId
            label
            value
        }
        totalAlerts
    }
}`

const bytesProcessedQuery = `
query GetBytesProcessedMetrics($input: MetricsInput!) {
    metrics(input: $input) {
        bytesProcessedPerSource {
            label
            value
            breakdown
        }
    }
}`
