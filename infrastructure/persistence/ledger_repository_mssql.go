package persistence

// SQL Server has no IF NOT EXISTS on CREATE TABLE and no ON CONFLICT, so the
// schema is guarded through sys.objects and writes upsert with MERGE.
var mssqlDialect = ledgerDialect{
	schema: []string{
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.kudos_given') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[kudos_given] (
        user_id BIGINT NOT NULL,
        activity_id BIGINT NOT NULL,
        [timestamp] DATETIME2 NOT NULL,
        CONSTRAINT PK_kudos_given PRIMARY KEY (user_id, activity_id)
    );
END`,
		`IF NOT EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'dbo.processed_activities') AND type in (N'U'))
BEGIN
    CREATE TABLE dbo.[processed_activities] (
        activity_id BIGINT NOT NULL PRIMARY KEY,
        [timestamp] DATETIME2 NOT NULL
    );
END`,
	},
	isProcessed: `SELECT 1 FROM dbo.[processed_activities] WHERE activity_id=@p1`,
	markProcessed: `MERGE dbo.[processed_activities] AS target
USING (VALUES (@p1)) AS src(activity_id)
ON target.activity_id = src.activity_id
WHEN MATCHED THEN UPDATE SET [timestamp]=@p2
WHEN NOT MATCHED THEN
    INSERT (activity_id, [timestamp]) VALUES (@p1,@p2);`,
	hasGivenKudos: `SELECT 1 FROM dbo.[kudos_given] WHERE user_id=@p1 AND activity_id=@p2`,
	recordKudos: `MERGE dbo.[kudos_given] AS target
USING (VALUES (@p1, @p2)) AS src(user_id, activity_id)
ON target.user_id = src.user_id AND target.activity_id = src.activity_id
WHEN MATCHED THEN UPDATE SET [timestamp]=@p3
WHEN NOT MATCHED THEN
    INSERT (user_id, activity_id, [timestamp]) VALUES (@p1,@p2,@p3);`,
}
